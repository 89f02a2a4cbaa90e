package model

import (
	"strings"
	"time"
)

// Purchase is the normalized commerce record behind a purchase reference.
type Purchase struct {
	Ref       string
	Status    string
	Refunded  bool
	Cancelled bool
	Product   string
	Variant   string
	CreatedAt *time.Time // nil when the provider did not report it
}

// IsPaid is true only for a completed, non-reversed purchase.
func (p *Purchase) IsPaid() bool {
	switch strings.ToLower(strings.TrimSpace(p.Status)) {
	case "completed", "paid":
		return !p.Refunded && !p.Cancelled
	default:
		return false
	}
}

// RejectReason names why a purchase is not redeemable; empty when paid.
func (p *Purchase) RejectReason() string {
	switch {
	case p.Refunded:
		return "refunded"
	case p.Cancelled:
		return "cancelled"
	case !p.IsPaid():
		return "unpaid"
	default:
		return ""
	}
}

// IsStale reports whether the purchase is older than window at now.
// Purchases without a creation time are not considered stale.
func (p *Purchase) IsStale(now time.Time, window time.Duration) bool {
	if p.CreatedAt == nil || window <= 0 {
		return false
	}
	return now.Sub(*p.CreatedAt) > window
}
