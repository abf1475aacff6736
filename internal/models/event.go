package models

import "time"

// EventType is the kind of an ad lifecycle event.
type EventType string

const (
	EventInit     EventType = "INIT"
	EventShown    EventType = "SHOWN"
	EventCanceled EventType = "CANCELED"
	EventRewarded EventType = "REWARDED"
	EventClicked  EventType = "CLICKED"
)

// Valid reports whether t is one of the five known event kinds.
func (t EventType) Valid() bool {
	switch t {
	case EventInit, EventShown, EventCanceled, EventRewarded, EventClicked:
		return true
	}
	return false
}

// PlatformIOS is the only platform tag SDK clients currently send.
const PlatformIOS = "ios"

// Counters holds the five per-app counters of an AppStat row.
type Counters struct {
	Init     int64 `json:"initCount"`
	Shown    int64 `json:"shownCount"`
	Canceled int64 `json:"canceledCount"`
	Rewarded int64 `json:"rewardedCount"`
	Clicked  int64 `json:"clickedCount"`
}

// EventRecord is one event to be counted and appended to the log.
// AdID is empty when the event carries no (or an unreachable) ad reference.
type EventRecord struct {
	AppID            string
	OwnerID          string
	BundleIDSnapshot string
	Type             EventType
	AdID             string
	Platform         string
	AppVersion       string
}

// AdEvent is an append-only row of the event log.
type AdEvent struct {
	ID               string
	AppID            string
	AdID             *string
	Type             EventType
	Platform         string
	AppVersion       *string
	BundleIDSnapshot string
	CreatedAt        time.Time
}

// SDKInitRequest is the POST /sdk/init payload.
type SDKInitRequest struct {
	BundleID   string `json:"bundleId" binding:"required,min=3,max=150"`
	Platform   string `json:"platform" binding:"required,eq=ios"`
	AppVersion string `json:"appVersion" binding:"max=50"`
}

// SDKInitResponse is returned by POST /sdk/init. Ad is null when nothing can be served.
type SDKInitResponse struct {
	AppID    string           `json:"appId"`
	BundleID string           `json:"bundleId"`
	Ad       *CreativePayload `json:"ad"`
}

// SDKEventRequest is the POST /sdk/event payload. INIT is not accepted from clients.
type SDKEventRequest struct {
	BundleID   string    `json:"bundleId" binding:"required,min=3,max=150"`
	EventType  EventType `json:"eventType" binding:"required,oneof=SHOWN CANCELED REWARDED CLICKED"`
	AdID       string    `json:"adId" binding:"max=100"`
	Platform   string    `json:"platform" binding:"omitempty,eq=ios"`
	AppVersion string    `json:"appVersion" binding:"max=50"`
}

// EventCountResponse is returned by the event counting endpoint.
type EventCountResponse struct {
	EventType EventType `json:"eventType"`
	Count     int64     `json:"count"`
}

// Incremented returns a copy of c with the counter for t increased by one.
// The receiver is never modified; unknown types return an unchanged copy.
func (c Counters) Incremented(t EventType) Counters {
	next := c
	switch t {
	case EventInit:
		next.Init++
	case EventShown:
		next.Shown++
	case EventCanceled:
		next.Canceled++
	case EventRewarded:
		next.Rewarded++
	case EventClicked:
		next.Clicked++
	}
	return next
}
