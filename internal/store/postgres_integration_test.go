//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

var (
	testStore     *PostgresStore
	testContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	if err := startPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if testStore != nil {
		testStore.Close()
	}
	if testContainer != nil {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = testContainer.Terminate(termCtx)
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) error {
	dsn := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://postgres:postgres@%s:%s/adserve?sslmode=disable", host, port.Port())
	}
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "adserve",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "pgx", dsn).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return err
	}
	testContainer = container

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return err
	}

	st, err := NewPostgresStore(ctx, dsn(host, port))
	if err != nil {
		return err
	}
	testStore = st
	return st.EnsureSchema(ctx)
}

func seedApp(t *testing.T, bundleID string) (*models.User, *models.TenantApp) {
	t.Helper()
	ctx := context.Background()

	owner, err := testStore.CreateUser(ctx, uuid.NewString()+"@example.com", "hash", models.RoleUser)
	require.NoError(t, err)

	appID := uuid.NewString()
	_, err = testStore.pool.Exec(ctx, `
		INSERT INTO apps (id, owner_id, name, bundle_id, fallback_media_type, fallback_media_url)
		VALUES ($1::uuid, $2::uuid, 'Demo', $3, 'IMAGE', 'https://cdn.example.com/fallback.png')
	`, appID, owner.ID, bundleID)
	require.NoError(t, err)

	app, err := testStore.GetApp(ctx, appID)
	require.NoError(t, err)
	return owner, app
}

func seedAd(t *testing.T, ownerID string, appID *string, scope models.AdScope) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testStore.pool.Exec(context.Background(), `
		INSERT INTO ads (id, owner_id, app_id, scope, title, media_type, media_url)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, 'Launch', 'VIDEO', 'https://cdn.example.com/ad.mp4')
	`, id, ownerID, appID, string(scope))
	require.NoError(t, err)
	return id
}

func TestPostgres_FindAppAndAds(t *testing.T) {
	ctx := context.Background()
	bundle := "com.example." + uuid.NewString()[:8]
	owner, app := seedApp(t, bundle)

	found, err := testStore.FindAppByBundleID(ctx, bundle)
	require.NoError(t, err)
	require.Equal(t, app.ID, found.ID)
	require.NotNil(t, found.FallbackMediaType)
	require.Equal(t, models.MediaImage, *found.FallbackMediaType)
	require.Equal(t, 15, found.FallbackRewardSeconds)

	_, err = testStore.FindAppByBundleID(ctx, "com.example.missing")
	require.ErrorIs(t, err, ErrNotFound)

	own := seedAd(t, owner.ID, &app.ID, models.ScopeAppOnly)
	global := seedAd(t, owner.ID, nil, models.ScopeAllApps)

	ads, err := testStore.ListAdsForApp(ctx, app.ID, owner.ID)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, ad := range ads {
		ids[ad.ID] = true
	}
	require.True(t, ids[own])
	require.True(t, ids[global])

	ref, err := testStore.FindAdRef(ctx, global)
	require.NoError(t, err)
	require.Nil(t, ref.AppID)
	require.Equal(t, models.ScopeAllApps, ref.Scope)

	_, err = testStore.FindAdRef(ctx, "fallback:"+app.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_RecordEventIsAtomicUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	_, app := seedApp(t, "com.example."+uuid.NewString()[:8])

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := testStore.RecordEvent(ctx, models.EventRecord{
				AppID: app.ID, OwnerID: app.OwnerID, BundleIDSnapshot: app.BundleID,
				Type: models.EventShown, Platform: models.PlatformIOS, AppVersion: "1.0.0",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := testStore.GetStats(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, models.Counters{Shown: n}, c)

	count, err := testStore.CountEvents(ctx, app.ID, models.EventShown, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(n), count)
}

func TestPostgres_UsersAndSettings(t *testing.T) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	u, err := testStore.CreateUser(ctx, email, "hash", models.RoleUser)
	require.NoError(t, err)

	_, err = testStore.CreateUser(ctx, email, "hash", models.RoleUser)
	require.True(t, apperr.Is(err, apperr.KindConflict))

	byID, err := testStore.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, email, byID.Email)

	admin, err := testStore.EnsureSuperAdmin(ctx, email, "other-hash")
	require.NoError(t, err)
	require.Equal(t, models.RoleSuperAdmin, admin.Role)

	open, err := testStore.RegistrationOpen(ctx)
	require.NoError(t, err)
	require.False(t, open)
}
