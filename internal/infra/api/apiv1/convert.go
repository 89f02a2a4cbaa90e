package apiv1

import (
	"telegram-entitlement-bot/internal/domain/model"
)

func toSteps(steps []model.StepResult) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		st := Step{Name: s.Name, Ok: s.OK, Skipped: s.Skipped}
		if s.Err != nil {
			st.Error = s.Err.Error()
		}
		out = append(out, st)
	}
	return out
}

func toReferral(o *model.ReferralOutcome) *Referral {
	if o == nil {
		return nil
	}
	r := &Referral{
		Status:           string(o.Status),
		Code:             o.Code,
		Referrer:         o.Referrer,
		Referred:         o.Referred,
		BonusDaysAwarded: o.BonusDaysAwarded,
		NewExpiry:        o.NewExpiry,
	}
	if o.Reason != nil {
		r.Reason = o.Reason.Error()
	}
	return r
}

func toRedemption(res *model.RedemptionResult) Redemption {
	out := Redemption{
		Kind:        string(res.Kind),
		Granted:     res.Granted,
		PurchaseRef: res.PurchaseRef,
		Beneficiary: res.Beneficiary,
		Product:     res.Product,
		Variant:     res.Variant,
		PlanLabel:   res.PlanLabel,
		LicenseKey:  res.LicenseKey,
		ExpiresAt:   res.ExpiresAt,
		Unlimited:   res.Unlimited(),
		RedeemedBy:  res.RedeemedBy,
		Referral:    toReferral(res.Referral),
		Steps:       toSteps(res.Steps),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// toLicense hides the bound device id behind DeviceBound.
func toLicense(l *model.LicenseInfo) *License {
	if l == nil {
		return nil
	}
	return &License{
		Key:         l.Key,
		ExpiresAt:   l.ExpiresAt,
		Lifetime:    l.IsLifetime(),
		DeviceBound: l.DeviceID != "",
		Note:        l.Note,
		Banned:      l.Banned,
	}
}

func toReferralCode(c *model.ReferralCode) *ReferralCode {
	if c == nil {
		return nil
	}
	return &ReferralCode{Owner: c.Owner, Code: c.Code, Uses: c.Uses, BonusDays: c.BonusDays, CreatedAt: c.CreatedAt}
}

func toReferralUse(u *model.ReferralUse) *ReferralUse {
	if u == nil {
		return nil
	}
	return &ReferralUse{Code: u.Code, Referrer: u.Referrer, Referred: u.Referred, BonusDaysAwarded: u.BonusDaysAwarded, CreatedAt: u.CreatedAt}
}

func toReferralUses(uses []*model.ReferralUse) []ReferralUse {
	out := make([]ReferralUse, 0, len(uses))
	for _, u := range uses {
		if u != nil {
			out = append(out, *toReferralUse(u))
		}
	}
	return out
}

func toBlacklistEntry(e *model.BlacklistEntry) *BlacklistEntry {
	if e == nil {
		return nil
	}
	return &BlacklistEntry{Reason: e.Reason, Actor: e.Actor, CreatedAt: e.CreatedAt}
}

func toReport(rep *model.BeneficiaryReport) BeneficiaryReport {
	out := BeneficiaryReport{
		Beneficiary:  rep.Beneficiary,
		Redemptions:  make([]LedgerRow, 0, len(rep.Redemptions)),
		Blacklist:    toBlacklistEntry(rep.Blacklist),
		ReferralCode: toReferralCode(rep.ReferralCode),
		ReferralUse:  toReferralUse(rep.ReferralUse),
		License:      toLicense(rep.License),
	}
	for _, r := range rep.Redemptions {
		out.Redemptions = append(out.Redemptions, LedgerRow{
			Id:            r.ID,
			PurchaseRef:   r.PurchaseRef,
			Product:       r.Product,
			Variant:       r.Variant,
			PlanLabel:     r.PlanLabel,
			State:         string(r.State),
			ExpiresAt:     r.ExpiresAt,
			HasLicense:    r.LicenseKey != nil,
			RoleGranted:   r.RoleGranted,
			Active:        r.Active,
			GrantedBy:     r.GrantedBy,
			CreatedAt:     r.CreatedAt,
			DeactivatedAt: r.DeactivatedAt,
		})
	}
	if rep.LicenseErr != nil {
		out.LicenseError = rep.LicenseErr.Error()
	}
	return out
}

func toStats(st *model.RedemptionStats) Stats {
	byVariant := st.ByVariant
	if byVariant == nil {
		byVariant = map[string]int{}
	}
	return Stats{
		Total:             st.Total,
		Last30Days:        st.LastMonth,
		Last7Days:         st.LastWeek,
		Active:            st.Active,
		Pending:           st.Pending,
		ByVariant:         byVariant,
		ReferralUses:      st.Referrals,
		ReferralBonusDays: st.BonusDays,
	}
}
