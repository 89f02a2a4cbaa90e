package model

import (
	"strings"
	"time"

	"telegram-entitlement-bot/internal/domain"
)

type RedemptionState string

const (
	// RedemptionStatePending marks a claimed purchase whose remote effects are in flight.
	RedemptionStatePending RedemptionState = "pending"
	RedemptionStateGranted RedemptionState = "granted"
)

// Redemption is the ledger row for one purchase turned into one grant.
type Redemption struct {
	ID            string
	PurchaseRef   string
	Beneficiary   int64
	Product       string
	Variant       string
	PlanLabel     string
	ExpiresAt     *time.Time // nil = unlimited
	LicenseKey    *string    // nil if issuance failed or was skipped
	RoleGranted   bool
	Active        bool
	State         RedemptionState
	ReferralCode  *string
	GrantedBy     int64
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

const maxPurchaseRefLen = 128

// NormalizePurchaseRef trims and validates a caller-supplied purchase reference.
func NormalizePurchaseRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || len(ref) > maxPurchaseRefLen {
		return "", domain.ErrInvalidArgument
	}
	for _, c := range ref {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return "", domain.ErrInvalidArgument
		}
	}
	return ref, nil
}

// NewPendingRedemption builds the claim row written before any remote effect.
func NewPendingRedemption(id, purchaseRef string, beneficiary, actor int64, p *Purchase, plan Plan, now time.Time) (*Redemption, error) {
	if id == "" || purchaseRef == "" || beneficiary == 0 || p == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &Redemption{
		ID:          id,
		PurchaseRef: purchaseRef,
		Beneficiary: beneficiary,
		Product:     p.Product,
		Variant:     p.Variant,
		PlanLabel:   plan.Label,
		ExpiresAt:   plan.ExpiresAt(now),
		Active:      false,
		State:       RedemptionStatePending,
		GrantedBy:   actor,
		CreatedAt:   now,
	}, nil
}

// IsLifetime reports whether the grant never expires.
func (r *Redemption) IsLifetime() bool { return r.ExpiresAt == nil }

// IsExpired reports whether the grant is due for the expiry pass at now.
func (r *Redemption) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Remaining returns time left on the grant; ok is false for lifetime grants.
func (r *Redemption) Remaining(now time.Time) (time.Duration, bool) {
	if r.ExpiresAt == nil {
		return 0, false
	}
	d := r.ExpiresAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// RedemptionStats aggregates the ledger for staff reporting.
type RedemptionStats struct {
	Total     int
	LastMonth int
	LastWeek  int
	Active    int
	Pending   int
	ByVariant map[string]int
	Referrals int
	BonusDays int
}
