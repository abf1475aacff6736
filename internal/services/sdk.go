// Package services holds the use cases behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/delivery"
	"github.com/PratikDhanave/adserve-sdk-service/internal/metrics"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/stats"
	"github.com/PratikDhanave/adserve-sdk-service/internal/tenant"
)

// AdLister lists the ads an app can serve: its own plus its owner's ALL_APPS ads.
type AdLister interface {
	ListAdsForApp(ctx context.Context, appID, ownerID string) ([]models.Ad, error)
}

// SDKStore is everything the SDK endpoints read and write.
type SDKStore interface {
	tenant.Finder
	AdLister
	stats.EventStore
}

// SDK serves the unauthenticated, bundle-scoped SDK endpoints.
type SDK struct {
	tenants  *tenant.Registry
	ads      AdLister
	recorder *stats.Recorder
	metrics  *metrics.Metrics
	log      *zap.Logger

	now    func() time.Time
	random delivery.RandomSource
}

func NewSDK(st SDKStore, rec *stats.Recorder, m *metrics.Metrics, log *zap.Logger) *SDK {
	return &SDK{
		tenants:  tenant.NewRegistry(st),
		ads:      st,
		recorder: rec,
		metrics:  m,
		log:      log,
		now:      time.Now,
		random:   delivery.DefaultRandom,
	}
}

// WithSelection replaces the clock and randomness used for ad selection.
func (s *SDK) WithSelection(now func() time.Time, random delivery.RandomSource) *SDK {
	s.now = now
	s.random = random
	return s
}

// Init resolves the app, picks a creative and records an INIT event.
// The response carries a nil Ad when neither a live nor a fallback ad exists.
func (s *SDK) Init(ctx context.Context, req models.SDKInitRequest) (*models.SDKInitResponse, error) {
	app, err := s.tenants.Resolve(ctx, req.BundleID)
	if err != nil {
		s.countInit(err)
		return nil, err
	}

	ads, err := s.ads.ListAdsForApp(ctx, app.ID, app.OwnerID)
	if err != nil {
		s.countInit(err)
		return nil, fmt.Errorf("list ads: %w", err)
	}

	live := delivery.Pick(ads, s.now(), s.random)
	payload := delivery.Compose(live, delivery.FallbackAd(app))

	if _, err := s.recorder.Record(ctx, models.EventRecord{
		AppID:            app.ID,
		OwnerID:          app.OwnerID,
		BundleIDSnapshot: app.BundleID,
		Type:             models.EventInit,
		Platform:         req.Platform,
		AppVersion:       req.AppVersion,
	}); err != nil {
		s.countInit(err)
		return nil, err
	}

	s.countInit(nil)
	if s.metrics != nil {
		source := "none"
		if payload != nil {
			source = payload.Source
		}
		s.metrics.AdsServed.WithLabelValues(source).Inc()
	}

	return &models.SDKInitResponse{AppID: app.ID, BundleID: app.BundleID, Ad: payload}, nil
}

// HandleEvent counts and logs one client-reported ad event.
func (s *SDK) HandleEvent(ctx context.Context, req models.SDKEventRequest) error {
	if req.EventType == models.EventInit || !req.EventType.Valid() {
		return apperr.Validation("Invalid event type")
	}

	app, err := s.tenants.Resolve(ctx, req.BundleID)
	if err != nil {
		return err
	}

	_, err = s.recorder.Record(ctx, models.EventRecord{
		AppID:            app.ID,
		OwnerID:          app.OwnerID,
		BundleIDSnapshot: app.BundleID,
		Type:             req.EventType,
		AdID:             req.AdID,
		Platform:         req.Platform,
		AppVersion:       req.AppVersion,
	})
	return err
}

func (s *SDK) countInit(err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindUnsupportedTenant), apperr.Is(err, apperr.KindValidation):
		result = "unsupported"
	default:
		result = "error"
	}
	s.metrics.SDKInits.WithLabelValues(result).Inc()
}
