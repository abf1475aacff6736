package models

import "time"

type MediaType string

const (
	MediaVideo MediaType = "VIDEO"
	MediaImage MediaType = "IMAGE"
)

type AdScope string

const (
	ScopeAppOnly AdScope = "APP_ONLY"
	ScopeAllApps AdScope = "ALL_APPS"
)

// Ad is a creative owned by a user. APP_ONLY ads have AppID set; ALL_APPS ads never do.
// Priority is stored but not used for selection.
type Ad struct {
	ID            string
	OwnerID       string
	AppID         *string
	Scope         AdScope
	Title         string
	MediaType     MediaType
	MediaURL      string
	ClickURL      *string
	RewardSeconds int
	Priority      int
	StartsAt      *time.Time
	EndsAt        *time.Time
	IsActive      bool
	UpdatedAt     time.Time
}

// AdRef is the ownership projection of an ad used when attaching it to an event.
type AdRef struct {
	ID      string
	OwnerID string
	AppID   *string
	Scope   AdScope
}

// ReachableFrom reports whether an app of ownerID may reference this ad.
func (r AdRef) ReachableFrom(appID, ownerID string) bool {
	if r.OwnerID != ownerID {
		return false
	}
	if r.Scope == ScopeAllApps {
		return true
	}
	return r.AppID != nil && *r.AppID == appID
}

// CreativePayload is the ad description returned to SDK clients.
type CreativePayload struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	MediaType     MediaType `json:"mediaType"`
	MediaURL      string    `json:"mediaUrl"`
	ClickURL      *string   `json:"clickUrl"`
	RewardSeconds int       `json:"rewardSeconds"`
	Source        string    `json:"source"`
}

const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)
