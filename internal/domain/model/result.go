package model

import (
	"time"

	"telegram-entitlement-bot/internal/domain"
)

// Step names recorded by best-effort actions.
const (
	StepGrantRole     = "grant_role"
	StepIssueLicense  = "issue_license"
	StepReferral      = "referral"
	StepRevokeRole    = "revoke_role"
	StepRevokeLicense = "revoke_license"
	StepDeactivate    = "deactivate"
	StepNotify        = "notify"
	StepExtendLedger  = "extend_ledger"
)

// StepResult is the recorded outcome of one best-effort action.
type StepResult struct {
	Name    string
	OK      bool
	Skipped bool
	Err     error
}

// Steps is an ordered list of step outcomes.
type Steps []StepResult

// Failed returns the names of steps that ran and failed.
func (s Steps) Failed() []string {
	var out []string
	for _, st := range s {
		if !st.OK && !st.Skipped {
			out = append(out, st.Name)
		}
	}
	return out
}

// Find returns the outcome of the named step.
func (s Steps) Find(name string) (StepResult, bool) {
	for _, st := range s {
		if st.Name == name {
			return st, true
		}
	}
	return StepResult{}, false
}

// RedemptionResult is what redeem hands back to the command layer.
type RedemptionResult struct {
	Kind        domain.Kind
	Err         error // nil on full success
	Granted     bool
	PurchaseRef string
	Beneficiary int64
	Product     string
	Variant     string
	PlanLabel   string
	LicenseKey  string
	ExpiresAt   *time.Time // nil with Granted = unlimited
	RedeemedBy  int64      // set on AlreadyProcessed when known
	Referral    *ReferralOutcome
	Steps       Steps
}

// Unlimited reports whether the granted entitlement never expires.
func (r *RedemptionResult) Unlimited() bool { return r.Granted && r.ExpiresAt == nil }

// BeneficiaryReport backs lookup_beneficiary.
type BeneficiaryReport struct {
	Beneficiary  int64
	Redemptions  []*Redemption
	Blacklist    *BlacklistEntry
	ReferralCode *ReferralCode
	ReferralUse  *ReferralUse
	License      *LicenseInfo
	LicenseErr   error // license service lookup failure, if any
}

// ActiveRedemption returns the newest active grant, if any.
func (b *BeneficiaryReport) ActiveRedemption() *Redemption {
	var latest *Redemption
	for _, r := range b.Redemptions {
		if !r.Active {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest
}

// AddTimeResult backs add_time.
type AddTimeResult struct {
	Beneficiary int64
	Key         string
	OldExpiry   *time.Time
	NewExpiry   *time.Time
	Steps       Steps
}

// RevokeResult backs the explicit revoke path.
type RevokeResult struct {
	Beneficiary int64
	Deactivated int
	Steps       Steps
}

// SweepReport summarizes one expiry or reminder pass.
type SweepReport struct {
	Pass      string
	Selected  int
	Processed int
	Failures  int // records with at least one failed remote action
	Skipped   bool
}
