// Package delivery picks the creative an SDK client receives on init.
package delivery

import (
	"math"
	"math/rand"
	"time"

	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

// RandomSource returns a value in [0, 1).
type RandomSource func() float64

// DefaultRandom is the process-wide source used outside tests.
var DefaultRandom RandomSource = rand.Float64

// IsLive reports whether ad is active and now falls inside its optional window.
// Both window bounds are inclusive.
func IsLive(ad models.Ad, now time.Time) bool {
	if !ad.IsActive {
		return false
	}
	if ad.StartsAt != nil && ad.StartsAt.After(now) {
		return false
	}
	if ad.EndsAt != nil && ad.EndsAt.Before(now) {
		return false
	}
	return true
}

// Eligible filters ads down to the live ones, preserving retrieval order.
func Eligible(ads []models.Ad, now time.Time) []models.Ad {
	out := make([]models.Ad, 0, len(ads))
	for _, ad := range ads {
		if IsLive(ad, now) {
			out = append(out, ad)
		}
	}
	return out
}

// Pick selects one live ad uniformly at random. Priority is ignored.
// It returns nil when no ad is live.
func Pick(ads []models.Ad, now time.Time, rnd RandomSource) *models.Ad {
	eligible := Eligible(ads, now)
	if len(eligible) == 0 {
		return nil
	}
	if rnd == nil {
		rnd = DefaultRandom
	}
	ad := eligible[pickIndex(rnd(), len(eligible))]
	return &ad
}

// pickIndex maps r to floor(r*n) clamped to [0, n-1].
func pickIndex(r float64, n int) int {
	if math.IsNaN(r) {
		return 0
	}
	idx := int(math.Floor(r * float64(n)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}
