package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

func TestStats_AccessControl(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	app := st.PutApp(models.TenantApp{OwnerID: "owner-1", BundleID: "com.example.demo", IsActive: true})
	svc := NewStats(st)

	owner := &models.User{ID: "owner-1", Role: models.RoleUser}
	stranger := &models.User{ID: "owner-2", Role: models.RoleUser}
	admin := &models.User{ID: "admin", Role: models.RoleSuperAdmin}

	got, err := svc.AppStats(ctx, owner, app.ID)
	require.NoError(t, err)
	require.Equal(t, &AppStats{AppID: app.ID}, got)

	_, err = svc.AppStats(ctx, admin, app.ID)
	require.NoError(t, err)

	_, err = svc.AppStats(ctx, stranger, app.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.AppStats(ctx, owner, "missing")
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.AppStats(ctx, nil, app.ID)
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestStats_CountEventsHalfOpenWindow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	app := st.PutApp(models.TenantApp{OwnerID: "owner-1", BundleID: "com.example.demo", IsActive: true})
	owner := &models.User{ID: "owner-1", Role: models.RoleUser}
	svc := NewStats(st)

	for i := 0; i < 3; i++ {
		_, err := st.RecordEvent(ctx, models.EventRecord{AppID: app.ID, Type: models.EventShown, Platform: "ios"})
		require.NoError(t, err)
	}
	_, err := st.RecordEvent(ctx, models.EventRecord{AppID: app.ID, Type: models.EventClicked, Platform: "ios"})
	require.NoError(t, err)

	from := time.Now().Add(-time.Minute)
	to := time.Now().Add(time.Minute)

	n, err := svc.CountEvents(ctx, owner, app.ID, models.EventShown, from, to)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = svc.CountEvents(ctx, owner, app.ID, models.EventShown, to, to.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = svc.CountEvents(ctx, owner, app.ID, models.EventShown, to, from)
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CountEvents(ctx, owner, app.ID, "VIEWED", from, to)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}
