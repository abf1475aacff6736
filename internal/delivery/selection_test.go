package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

var now = time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)

func makeAd(id string, opts ...func(*models.Ad)) models.Ad {
	appID := "app-1"
	click := "https://example.com"
	ad := models.Ad{
		ID:            id,
		OwnerID:       "user-1",
		AppID:         &appID,
		Scope:         models.ScopeAppOnly,
		Title:         "Default Ad",
		MediaType:     models.MediaVideo,
		MediaURL:      "https://cdn.example.com/ad.mp4",
		ClickURL:      &click,
		RewardSeconds: 15,
		Priority:      1,
		IsActive:      true,
		UpdatedAt:     now.Add(-2 * time.Hour),
	}
	for _, opt := range opts {
		opt(&ad)
	}
	return ad
}

func at(ts time.Time) *time.Time { return &ts }

func fixed(v float64) RandomSource { return func() float64 { return v } }

func TestEligible_FiltersInactiveAndOutOfWindow(t *testing.T) {
	ads := []models.Ad{
		makeAd("inactive", func(a *models.Ad) { a.IsActive = false; a.Priority = 50 }),
		makeAd("future", func(a *models.Ad) { a.StartsAt = at(now.Add(24 * time.Hour)) }),
		makeAd("expired", func(a *models.Ad) { a.EndsAt = at(now.Add(-24 * time.Hour)) }),
		makeAd("open"),
		makeAd("in-window", func(a *models.Ad) {
			a.StartsAt = at(now.Add(-time.Hour))
			a.EndsAt = at(now.Add(time.Hour))
		}),
		makeAd("bounds-equal-now", func(a *models.Ad) {
			a.StartsAt = at(now)
			a.EndsAt = at(now)
		}),
	}

	got := Eligible(ads, now)
	ids := make([]string, 0, len(got))
	for _, ad := range got {
		ids = append(ids, ad.ID)
	}
	require.Equal(t, []string{"open", "in-window", "bounds-equal-now"}, ids)
}

func TestPick_FiltersBeforeChoosing(t *testing.T) {
	ads := []models.Ad{
		makeAd("inactive", func(a *models.Ad) { a.IsActive = false }),
		makeAd("future", func(a *models.Ad) { a.StartsAt = at(now.Add(24 * time.Hour)) }),
		makeAd("good"),
	}
	chosen := Pick(ads, now, fixed(0))
	require.NotNil(t, chosen)
	require.Equal(t, "good", chosen.ID)
}

func TestPick_UniformIgnoresPriority(t *testing.T) {
	ads := []models.Ad{
		makeAd("ad-1", func(a *models.Ad) { a.Priority = 5 }),
		makeAd("ad-2", func(a *models.Ad) { a.Priority = 10 }),
		makeAd("ad-3", func(a *models.Ad) { a.Priority = 10 }),
	}

	require.Equal(t, "ad-1", Pick(ads, now, fixed(0)).ID)
	require.Equal(t, "ad-2", Pick(ads, now, fixed(0.5)).ID)
	require.Equal(t, "ad-3", Pick(ads, now, fixed(0.67)).ID)
	require.Equal(t, "ad-3", Pick(ads, now, fixed(0.9999999)).ID)
	require.Equal(t, "ad-3", Pick(ads, now, fixed(1)).ID)
	require.Equal(t, "ad-1", Pick(ads, now, fixed(-0.2)).ID)
}

func TestPick_GlobalAdsAreCandidates(t *testing.T) {
	ads := []models.Ad{
		makeAd("app-only"),
		makeAd("all-apps", func(a *models.Ad) { a.AppID = nil; a.Scope = models.ScopeAllApps }),
	}
	require.Equal(t, "all-apps", Pick(ads, now, fixed(0.99)).ID)
}

func TestPick_NoLiveAd(t *testing.T) {
	require.Nil(t, Pick(nil, now, fixed(0.5)))
	require.Nil(t, Pick([]models.Ad{makeAd("off", func(a *models.Ad) { a.IsActive = false })}, now, fixed(0.5)))
}

func TestPick_DefaultRandomStaysInBounds(t *testing.T) {
	ads := []models.Ad{makeAd("a"), makeAd("b"), makeAd("c")}
	for i := 0; i < 200; i++ {
		require.NotNil(t, Pick(ads, now, nil))
	}
}

func TestPick_ReturnsCopy(t *testing.T) {
	ads := []models.Ad{makeAd("a")}
	chosen := Pick(ads, now, fixed(0))
	chosen.Title = "mutated"
	require.Equal(t, "Default Ad", ads[0].Title)
}
