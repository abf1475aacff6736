// Package store persists tenants, ads, counters, events and users.
package store

import "errors"

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// registrationSettingID is the singleton row of site_settings.
const registrationSettingID = 1
