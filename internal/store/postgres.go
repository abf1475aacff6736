package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// PostgresStore is the durable persistence layer. Counters rely on
// INSERT ... ON CONFLICT DO UPDATE, never on read-then-write.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

const appColumns = `
	id::text, owner_id::text, name, bundle_id, is_active,
	fallback_media_type, fallback_media_url, fallback_click_url, fallback_reward_seconds`

func scanApp(row pgx.Row) (*models.TenantApp, error) {
	var (
		app       models.TenantApp
		mediaType *string
	)
	err := row.Scan(
		&app.ID, &app.OwnerID, &app.Name, &app.BundleID, &app.IsActive,
		&mediaType, &app.FallbackMediaURL, &app.FallbackClickURL, &app.FallbackRewardSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if mediaType != nil {
		mt := models.MediaType(*mediaType)
		app.FallbackMediaType = &mt
	}
	return &app, nil
}

// FindAppByBundleID looks up an app by exact (already normalized) bundle id.
func (p *PostgresStore) FindAppByBundleID(ctx context.Context, bundleID string) (*models.TenantApp, error) {
	return scanApp(p.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM apps WHERE bundle_id = $1`, bundleID))
}

// GetApp returns the app with the given id.
func (p *PostgresStore) GetApp(ctx context.Context, appID string) (*models.TenantApp, error) {
	if _, err := uuid.Parse(appID); err != nil {
		return nil, ErrNotFound
	}
	return scanApp(p.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM apps WHERE id = $1::uuid`, appID))
}

// ListAdsForApp returns the app's own ads plus its owner's ALL_APPS ads, newest first.
func (p *PostgresStore) ListAdsForApp(ctx context.Context, appID, ownerID string) ([]models.Ad, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, owner_id::text, app_id::text, scope, title, media_type, media_url,
		       click_url, reward_seconds, priority, starts_at, ends_at, is_active, updated_at
		FROM ads
		WHERE owner_id = $2::uuid
		  AND (app_id = $1::uuid OR scope = 'ALL_APPS')
		ORDER BY updated_at DESC
	`, appID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.Ad
	for rows.Next() {
		var (
			ad               models.Ad
			scope, mediaType string
		)
		if err := rows.Scan(
			&ad.ID, &ad.OwnerID, &ad.AppID, &scope, &ad.Title, &mediaType, &ad.MediaURL,
			&ad.ClickURL, &ad.RewardSeconds, &ad.Priority, &ad.StartsAt, &ad.EndsAt, &ad.IsActive, &ad.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ad.Scope = models.AdScope(scope)
		ad.MediaType = models.MediaType(mediaType)
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// FindAdRef returns the ownership projection of an ad. Ids that are not UUIDs
// cannot exist and report ErrNotFound without a round trip.
func (p *PostgresStore) FindAdRef(ctx context.Context, adID string) (*models.AdRef, error) {
	if _, err := uuid.Parse(adID); err != nil {
		return nil, ErrNotFound
	}
	var (
		ref   models.AdRef
		scope string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, owner_id::text, app_id::text, scope FROM ads WHERE id = $1::uuid
	`, adID).Scan(&ref.ID, &ref.OwnerID, &ref.AppID, &scope)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ref.Scope = models.AdScope(scope)
	return &ref, nil
}

// counterColumn maps an event type to its app_stats column.
func counterColumn(t models.EventType) (string, bool) {
	switch t {
	case models.EventInit:
		return "init_count", true
	case models.EventShown:
		return "shown_count", true
	case models.EventCanceled:
		return "canceled_count", true
	case models.EventRewarded:
		return "rewarded_count", true
	case models.EventClicked:
		return "clicked_count", true
	}
	return "", false
}

// RecordEvent increments the counter for rec.Type (creating the stats row with 1)
// and appends the event, in a single transaction.
func (p *PostgresStore) RecordEvent(ctx context.Context, rec models.EventRecord) (models.Counters, error) {
	column, ok := counterColumn(rec.Type)
	if !ok {
		return models.Counters{}, fmt.Errorf("unknown event type %q", rec.Type)
	}

	upsert := fmt.Sprintf(`
		INSERT INTO app_stats (app_id, %[1]s) VALUES ($1::uuid, 1)
		ON CONFLICT (app_id) DO UPDATE
		SET %[1]s = app_stats.%[1]s + 1, updated_at = now()
		RETURNING init_count, shown_count, canceled_count, rewarded_count, clicked_count
	`, column)

	var c models.Counters
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, upsert, rec.AppID).Scan(
			&c.Init, &c.Shown, &c.Canceled, &c.Rewarded, &c.Clicked,
		); err != nil {
			return fmt.Errorf("increment %s: %w", column, err)
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO ad_events (id, app_id, ad_id, event_type, platform, app_version, bundle_id_snapshot)
			VALUES ($1::uuid, $2::uuid, NULLIF($3, '')::uuid, $4, $5, NULLIF($6, ''), $7)
		`, uuid.NewString(), rec.AppID, rec.AdID, string(rec.Type),
			strings.ToUpper(rec.Platform), rec.AppVersion, rec.BundleIDSnapshot)
		if err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	return c, err
}

// GetStats returns the app's counters, all zero when nothing was recorded yet.
func (p *PostgresStore) GetStats(ctx context.Context, appID string) (models.Counters, error) {
	var c models.Counters
	err := p.pool.QueryRow(ctx, `
		SELECT init_count, shown_count, canceled_count, rewarded_count, clicked_count
		FROM app_stats WHERE app_id = $1::uuid
	`, appID).Scan(&c.Init, &c.Shown, &c.Canceled, &c.Rewarded, &c.Clicked)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Counters{}, nil
	}
	return c, err
}

// CountEvents returns the number of events of one type for an app in [from,to).
// Using a half-open interval avoids double counting at window boundaries.
func (p *PostgresStore) CountEvents(
	ctx context.Context,
	appID string,
	eventType models.EventType,
	from time.Time,
	to time.Time,
) (int64, error) {

	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ad_events
		WHERE app_id = $1::uuid
		  AND event_type = $2
		  AND created_at >= $3
		  AND created_at <  $4
	`, appID, string(eventType), from, to).Scan(&count)

	return count, err
}

const userColumns = `id::text, email, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// CreateUser inserts an active user. A duplicate email maps to a Conflict error.
func (p *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error) {
	u, err := scanUser(p.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING `+userColumns,
		uuid.NewString(), email, passwordHash, string(role)))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

// EnsureSuperAdmin creates the super admin or resets its password, role and active flag.
func (p *PostgresStore) EnsureSuperAdmin(ctx context.Context, email, passwordHash string) (*models.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1::uuid, $2, $3, 'SUPER_ADMIN')
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, role = 'SUPER_ADMIN', is_active = TRUE
		RETURNING `+userColumns,
		uuid.NewString(), email, passwordHash))
}

func (p *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (p *PostgresStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
}

// RegistrationOpen reads the registration flag, creating the closed default row on first use.
func (p *PostgresStore) RegistrationOpen(ctx context.Context) (bool, error) {
	var open bool
	err := p.pool.QueryRow(ctx, `
		INSERT INTO site_settings (id, is_registration_open) VALUES ($1, FALSE)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING is_registration_open
	`, registrationSettingID).Scan(&open)
	return open, err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("Resource already exists", err)
	}
	return err
}
