package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

// StatsStore is the read side of app counters and the event log.
type StatsStore interface {
	GetApp(ctx context.Context, appID string) (*models.TenantApp, error)
	GetStats(ctx context.Context, appID string) (models.Counters, error)
	CountEvents(ctx context.Context, appID string, eventType models.EventType, from, to time.Time) (int64, error)
}

// AppStats is the stats view of one app.
type AppStats struct {
	AppID string `json:"appId"`
	models.Counters
}

// Stats serves counters and event counts to app owners and super admins.
type Stats struct {
	store StatsStore
}

func NewStats(st StatsStore) *Stats {
	return &Stats{store: st}
}

// AppStats returns the app's counters, zero when nothing was recorded yet.
func (s *Stats) AppStats(ctx context.Context, viewer *models.User, appID string) (*AppStats, error) {
	app, err := s.authorize(ctx, viewer, appID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetStats(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &AppStats{AppID: app.ID, Counters: c}, nil
}

// CountEvents counts events of one type in [from,to).
func (s *Stats) CountEvents(
	ctx context.Context,
	viewer *models.User,
	appID string,
	eventType models.EventType,
	from, to time.Time,
) (int64, error) {
	if !eventType.Valid() {
		return 0, apperr.Validation("Invalid event type")
	}
	if !from.Before(to) {
		return 0, apperr.Validation("from must be < to")
	}
	app, err := s.authorize(ctx, viewer, appID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.CountEvents(ctx, app.ID, eventType, from.UTC(), to.UTC())
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// authorize hides apps the viewer may not read behind the same NotFound as missing ones.
func (s *Stats) authorize(ctx context.Context, viewer *models.User, appID string) (*models.TenantApp, error) {
	if viewer == nil {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	app, err := s.store.GetApp(ctx, appID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("App not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	if viewer.Role != models.RoleSuperAdmin && app.OwnerID != viewer.ID {
		return nil, apperr.NotFound("App not found")
	}
	return app, nil
}
