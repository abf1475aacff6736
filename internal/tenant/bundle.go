// Package tenant resolves SDK bundle identifiers to the apps that own them.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

var bundleIDPattern = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)+$`)

// NormalizeBundleID trims and lowercases a bundle id. It is idempotent.
func NormalizeBundleID(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsValidBundleID validates the normalized form of raw.
func IsValidBundleID(raw string) bool {
	return bundleIDPattern.MatchString(NormalizeBundleID(raw))
}

// ParseBundleID returns the normalized bundle id or a validation error.
func ParseBundleID(raw string) (string, error) {
	id := NormalizeBundleID(raw)
	if !bundleIDPattern.MatchString(id) {
		return "", apperr.Validation("Invalid bundle identifier")
	}
	return id, nil
}

// Finder looks up an app by its exact normalized bundle id.
type Finder interface {
	FindAppByBundleID(ctx context.Context, bundleID string) (*models.TenantApp, error)
}

// Registry resolves raw bundle ids to active tenant apps.
type Registry struct {
	finder Finder
}

func NewRegistry(finder Finder) *Registry {
	return &Registry{finder: finder}
}

// Resolve returns the active app for raw. Unknown and inactive bundles yield the
// same UnsupportedTenant error.
func (r *Registry) Resolve(ctx context.Context, raw string) (*models.TenantApp, error) {
	bundleID, err := ParseBundleID(raw)
	if err != nil {
		return nil, err
	}

	app, err := r.finder.FindAppByBundleID(ctx, bundleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.UnsupportedTenant()
	}
	if err != nil {
		return nil, fmt.Errorf("find app by bundle id: %w", err)
	}
	if app == nil || !app.IsActive {
		return nil, apperr.UnsupportedTenant()
	}
	return app, nil
}
