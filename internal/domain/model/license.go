package model

import "time"

// LicenseInfo is the local shadow of a key held by the license service.
type LicenseInfo struct {
	Key         string
	Beneficiary int64
	ExpiresAt   *time.Time // nil = never expires
	DeviceID    string     // empty until first use
	Note        string
	Banned      bool
}

func (l *LicenseInfo) IsLifetime() bool { return l.ExpiresAt == nil }

// ExtendResult is returned by the license client's extend call.
type ExtendResult struct {
	OldExpiry *time.Time
	NewExpiry *time.Time
	Lifetime  bool // the key never expires; nothing was changed
}

// LicenseNote is the note attached to keys created or refreshed by a redemption.
func LicenseNote(product, variant, purchaseRef string) string {
	return product + " | " + variant + " | Invoice: " + purchaseRef
}
