package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

// MemoryStore is a thread-safe in-process store used for local development and tests.
// Every operation holds the lock only for its own map access.
type MemoryStore struct {
	mu sync.RWMutex

	apps             map[string]models.TenantApp
	ads              map[string]models.Ad
	stats            map[string]models.Counters
	events           []models.AdEvent
	users            map[string]models.User
	registrationOpen bool

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:  make(map[string]models.TenantApp),
		ads:   make(map[string]models.Ad),
		stats: make(map[string]models.Counters),
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// PutApp inserts or replaces an app. An empty ID is assigned a new UUID.
func (m *MemoryStore) PutApp(app models.TenantApp) models.TenantApp {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[app.ID] = app
	return app
}

// PutAd inserts or replaces an ad. An empty ID is assigned a new UUID.
func (m *MemoryStore) PutAd(ad models.Ad) models.Ad {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	if ad.UpdatedAt.IsZero() {
		ad.UpdatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ads[ad.ID] = ad
	return ad
}

func (m *MemoryStore) SetRegistrationOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationOpen = open
}

// Events returns a copy of the event log of one app.
func (m *MemoryStore) Events(appID string) []models.AdEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AdEvent
	for _, e := range m.events {
		if e.AppID == appID {
			out = append(out, e)
		}
	}
	return out
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

func (m *MemoryStore) FindAppByBundleID(_ context.Context, bundleID string) (*models.TenantApp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, app := range m.apps {
		if app.BundleID == bundleID {
			found := app
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetApp(_ context.Context, appID string) (*models.TenantApp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[appID]
	if !ok {
		return nil, ErrNotFound
	}
	return &app, nil
}

func (m *MemoryStore) ListAdsForApp(_ context.Context, appID, ownerID string) ([]models.Ad, error) {
	m.mu.RLock()
	var ads []models.Ad
	for _, ad := range m.ads {
		if ad.OwnerID != ownerID {
			continue
		}
		if ad.Scope == models.ScopeAllApps || (ad.AppID != nil && *ad.AppID == appID) {
			ads = append(ads, ad)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(ads, func(i, j int) bool {
		if ads[i].UpdatedAt.Equal(ads[j].UpdatedAt) {
			return ads[i].ID < ads[j].ID
		}
		return ads[i].UpdatedAt.After(ads[j].UpdatedAt)
	})
	return ads, nil
}

func (m *MemoryStore) FindAdRef(_ context.Context, adID string) (*models.AdRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ad, ok := m.ads[adID]
	if !ok {
		return nil, ErrNotFound
	}
	return &models.AdRef{ID: ad.ID, OwnerID: ad.OwnerID, AppID: ad.AppID, Scope: ad.Scope}, nil
}

// RecordEvent applies the increment and the append under one critical section.
func (m *MemoryStore) RecordEvent(_ context.Context, rec models.EventRecord) (models.Counters, error) {
	evt := models.AdEvent{
		ID:               uuid.NewString(),
		AppID:            rec.AppID,
		Type:             rec.Type,
		Platform:         strings.ToUpper(rec.Platform),
		BundleIDSnapshot: rec.BundleIDSnapshot,
		CreatedAt:        m.now(),
	}
	if rec.AdID != "" {
		adID := rec.AdID
		evt.AdID = &adID
	}
	if rec.AppVersion != "" {
		v := rec.AppVersion
		evt.AppVersion = &v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[rec.AppID]; !ok {
		return models.Counters{}, ErrNotFound
	}
	next := m.stats[rec.AppID].Incremented(rec.Type)
	m.stats[rec.AppID] = next
	m.events = append(m.events, evt)
	return next, nil
}

func (m *MemoryStore) GetStats(_ context.Context, appID string) (models.Counters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats[appID], nil
}

func (m *MemoryStore) CountEvents(_ context.Context, appID string, eventType models.EventType, from, to time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, e := range m.events {
		if e.AppID == appID && e.Type == eventType && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, email, passwordHash string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, apperr.Conflict("Resource already exists", nil)
		}
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    m.now(),
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *MemoryStore) EnsureSuperAdmin(_ context.Context, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			u.Role = models.RoleSuperAdmin
			u.IsActive = true
			m.users[id] = u
			return &u, nil
		}
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    m.now(),
	}
	m.users[u.ID] = u
	return &u, nil
}

// SetUserActive toggles a user's active flag.
func (m *MemoryStore) SetUserActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsActive = active
		m.users[id] = u
	}
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) RegistrationOpen(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registrationOpen, nil
}
