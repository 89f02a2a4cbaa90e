package model

import (
	"strings"
	"time"

	"telegram-entitlement-bot/internal/domain"
)

const (
	ReferralCodePrefix  = "REF-"
	ReferralCodeLength  = 6
	ReferralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type ReferralCode struct {
	Owner     int64
	Code      string
	Uses      int
	BonusDays int
	CreatedAt time.Time
}

// ReferralUse records that Referred redeemed Code. One per referred identity, ever.
type ReferralUse struct {
	ID               string
	Code             string
	Referrer         int64
	Referred         int64
	BonusDaysAwarded int
	CreatedAt        time.Time
}

// NormalizeReferralCode upper-cases and validates the REF-XXXXXX format.
func NormalizeReferralCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !strings.HasPrefix(c, ReferralCodePrefix) || len(c) != len(ReferralCodePrefix)+ReferralCodeLength {
		return "", domain.ErrInvalidArgument
	}
	for _, r := range c[len(ReferralCodePrefix):] {
		if !strings.ContainsRune(ReferralCodeCharset, r) {
			return "", domain.ErrInvalidArgument
		}
	}
	return c, nil
}

type ReferralStatus string

const (
	ReferralApplied     ReferralStatus = "applied"      // bonus materialized on the referrer's license
	ReferralNoLicense   ReferralStatus = "no_license"   // accepted, referrer holds no license; 0 days
	ReferralLifetime    ReferralStatus = "lifetime"     // accepted, referrer license never expires; 0 days
	ReferralBonusFailed ReferralStatus = "bonus_failed" // accepted, license service failed; 0 days
	ReferralRejected    ReferralStatus = "rejected"
)

// ReferralOutcome is returned by apply and embedded in redemption results.
type ReferralOutcome struct {
	Status           ReferralStatus
	Code             string
	Referrer         int64
	Referred         int64
	BonusDaysAwarded int
	NewExpiry        *time.Time
	Reason           error // set when Status is rejected or the bonus was not materialized
	Steps            []StepResult
}

// Accepted reports whether a ReferralUse row was written.
func (o *ReferralOutcome) Accepted() bool {
	return o != nil && o.Status != ReferralRejected
}

// ReferralSummary is the per-owner view for /referrals.
type ReferralSummary struct {
	Code      *ReferralCode
	Uses      []*ReferralUse
	BonusDays int
	UsedByMe  *ReferralUse
}
