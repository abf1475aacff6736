package stats

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/metrics"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

// EventStore is the persistence the recorder needs. RecordEvent must increment the
// matching counter (initializing it to 1) and append the event atomically.
type EventStore interface {
	FindAdRef(ctx context.Context, adID string) (*models.AdRef, error)
	RecordEvent(ctx context.Context, rec models.EventRecord) (models.Counters, error)
}

// Recorder counts events and appends them to the event log.
type Recorder struct {
	store   EventStore
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewRecorder(st EventStore, m *metrics.Metrics, log *zap.Logger) *Recorder {
	return &Recorder{store: st, metrics: m, log: log}
}

// Record stores rec and returns the app's counters after the increment.
// An ad reference the app cannot reach is dropped rather than rejected.
func (r *Recorder) Record(ctx context.Context, rec models.EventRecord) (models.Counters, error) {
	if !rec.Type.Valid() {
		return models.Counters{}, apperr.Validation("Invalid event type")
	}
	if rec.Platform == "" {
		rec.Platform = models.PlatformIOS
	}

	if rec.AdID != "" {
		adID, err := r.reachableAdID(ctx, rec)
		if err != nil {
			return models.Counters{}, err
		}
		rec.AdID = adID
	}

	counters, err := r.store.RecordEvent(ctx, rec)
	if err != nil {
		return models.Counters{}, fmt.Errorf("record %s event: %w", rec.Type, err)
	}
	if r.metrics != nil {
		r.metrics.SDKEvents.WithLabelValues(string(rec.Type)).Inc()
	}
	return counters, nil
}

func (r *Recorder) reachableAdID(ctx context.Context, rec models.EventRecord) (string, error) {
	ref, err := r.store.FindAdRef(ctx, rec.AdID)
	if errors.Is(err, store.ErrNotFound) {
		r.log.Debug("dropping unknown ad reference", zap.String("app_id", rec.AppID), zap.String("ad_id", rec.AdID))
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find ad ref: %w", err)
	}
	if !ref.ReachableFrom(rec.AppID, rec.OwnerID) {
		r.log.Debug("dropping unreachable ad reference", zap.String("app_id", rec.AppID), zap.String("ad_id", rec.AdID))
		return "", nil
	}
	return ref.ID, nil
}
