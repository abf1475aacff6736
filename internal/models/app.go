package models

// TenantApp is a mobile app registered by an owner, addressed by its bundle id.
type TenantApp struct {
	ID       string
	OwnerID  string
	Name     string
	BundleID string
	IsActive bool

	FallbackMediaType     *MediaType
	FallbackMediaURL      *string
	FallbackClickURL      *string
	FallbackRewardSeconds int
}
