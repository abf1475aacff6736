package delivery

import (
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

const fallbackTitle = "Fallback Ad"

// FallbackAd synthesizes the app-level default creative. It returns nil unless both
// the fallback media type and media URL are configured.
func FallbackAd(app *models.TenantApp) *models.Ad {
	if app == nil || app.FallbackMediaType == nil || app.FallbackMediaURL == nil || *app.FallbackMediaURL == "" {
		return nil
	}
	appID := app.ID
	return &models.Ad{
		ID:            "fallback:" + app.ID,
		OwnerID:       app.OwnerID,
		AppID:         &appID,
		Scope:         models.ScopeAppOnly,
		Title:         fallbackTitle,
		MediaType:     *app.FallbackMediaType,
		MediaURL:      *app.FallbackMediaURL,
		ClickURL:      app.FallbackClickURL,
		RewardSeconds: app.FallbackRewardSeconds,
		Priority:      -1,
		IsActive:      true,
	}
}

// Compose prefers the live ad over the fallback and returns nil when neither exists.
func Compose(live, fallback *models.Ad) *models.CreativePayload {
	selected, source := live, models.SourceLive
	if selected == nil {
		selected, source = fallback, models.SourceFallback
	}
	if selected == nil {
		return nil
	}
	return &models.CreativePayload{
		ID:            selected.ID,
		Title:         selected.Title,
		MediaType:     selected.MediaType,
		MediaURL:      selected.MediaURL,
		ClickURL:      selected.ClickURL,
		RewardSeconds: SanitizeRewardSeconds(selected.RewardSeconds),
		Source:        source,
	}
}
