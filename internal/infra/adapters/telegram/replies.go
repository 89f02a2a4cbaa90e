package telegram

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
)

const dateLayout = "2006-01-02 15:04 MST"

func (r *RealTelegramBotAdapter) redemptionText(res *model.RedemptionResult, staff bool) string {
	if res == nil {
		return r.translator.T("unexpected_error")
	}
	switch res.Kind {
	case domain.KindOK, domain.KindPartialSuccess:
		var b strings.Builder
		if res.Kind == domain.KindPartialSuccess {
			b.WriteString(r.translator.T("redeem_partial", strings.Join(res.Steps.Failed(), ", ")))
		} else if res.Unlimited() {
			b.WriteString(r.translator.T("redeem_ok_unlimited", res.PlanLabel))
		} else {
			b.WriteString(r.translator.T("redeem_ok", res.PlanLabel, formatExpiry(res.ExpiresAt)))
		}
		if res.LicenseKey != "" && !staff {
			b.WriteString("\n" + r.translator.T("redeem_key", res.LicenseKey))
		}
		if res.Referral != nil {
			b.WriteString("\n" + r.referralText(res.Referral, res.Referral.Reason))
		}
		return b.String()
	case domain.KindAlreadyProcessed:
		if staff && res.RedeemedBy != 0 {
			return r.translator.T("redeem_already_by", res.RedeemedBy)
		}
		return r.translator.T("redeem_already")
	case domain.KindBlocked:
		return r.translator.T("redeem_blocked")
	case domain.KindValidation:
		return r.translator.T("redeem_invalid")
	case domain.KindUpstreamRejected:
		switch {
		case errors.Is(res.Err, domain.ErrPaymentNotFound):
			return r.translator.T("redeem_not_found")
		case errors.Is(res.Err, domain.ErrPaymentStale):
			return r.translator.T("redeem_stale")
		case errors.Is(res.Err, domain.ErrPaymentInvalid):
			return r.translator.T("redeem_unpaid", rejectReason(res.Err))
		}
		return r.errorText(res.Err)
	default:
		return r.errorText(res.Err)
	}
}

// rejectReason extracts the provider status appended after the sentinel text.
func rejectReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrPaymentInvalid.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrPaymentInvalid.Error())+2:]
	}
	return "not paid"
}

func (r *RealTelegramBotAdapter) referralText(out *model.ReferralOutcome, err error) string {
	if out != nil && out.Accepted() {
		return r.translator.T("referral_applied")
	}
	switch {
	case errors.Is(err, domain.ErrReferralSelf):
		return r.translator.T("referral_self")
	case errors.Is(err, domain.ErrReferralUnknownCode):
		return r.translator.T("referral_unknown")
	case errors.Is(err, domain.ErrReferralAlreadyUsed):
		return r.translator.T("referral_already_used")
	case errors.Is(err, domain.ErrInvalidArgument):
		return r.translator.T("referral_invalid")
	}
	return r.errorText(err)
}

// errorText maps a classified error to a user-facing message.
func (r *RealTelegramBotAdapter) errorText(err error) string {
	switch {
	case err == nil:
		return r.translator.T("unexpected_error")
	case errors.Is(err, domain.ErrNoLicense):
		return r.translator.T("no_license")
	case errors.Is(err, domain.ErrLifetimeLicense):
		return r.translator.T("addtime_lifetime")
	case errors.Is(err, domain.ErrBlocked):
		return r.translator.T("redeem_blocked")
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return r.translator.T("invalid_input")
	case domain.KindUpstreamUnavailable:
		return r.translator.T("upstream_unavailable")
	case domain.KindNotFound:
		return r.translator.T("not_found")
	default:
		return r.translator.T("unexpected_error")
	}
}

func (r *RealTelegramBotAdapter) keyTimeText(lic *model.LicenseInfo) string {
	if lic.IsLifetime() {
		return r.translator.T("keytime_unlimited")
	}
	return r.translator.T("keytime", formatExpiry(lic.ExpiresAt), formatRemaining(time.Until(*lic.ExpiresAt)))
}

func (r *RealTelegramBotAdapter) referralSummaryText(s *model.ReferralSummary) string {
	var b strings.Builder
	if s.Code == nil {
		b.WriteString(r.translator.T("referral_summary_none"))
	} else {
		b.WriteString(r.translator.T("referral_summary", s.Code.Code, len(s.Uses), s.BonusDays))
	}
	if s.UsedByMe != nil {
		b.WriteString("\n" + r.translator.T("referral_used_by_me", s.UsedByMe.Code))
	}
	return b.String()
}

func (r *RealTelegramBotAdapter) recentReferralsText(uses []*model.ReferralUse) string {
	lines := []string{r.translator.T("referral_recent")}
	for _, u := range uses {
		if u == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d -> %d (+%dd) %s",
			u.Code, u.Referrer, u.Referred, u.BonusDaysAwarded, u.CreatedAt.UTC().Format("2006-01-02")))
	}
	return strings.Join(lines, "\n")
}

func (r *RealTelegramBotAdapter) lookupText(rep *model.BeneficiaryReport) string {
	lines := []string{r.translator.T("lookup_header", rep.Beneficiary)}
	if e := rep.Blacklist; e != nil {
		lines = append(lines, r.translator.T("lookup_blacklisted", e.Reason, e.Actor, e.CreatedAt.UTC().Format(dateLayout)))
	}
	if rep.ReferralCode != nil {
		lines = append(lines, r.translator.T("lookup_referral_code", rep.ReferralCode.Code, rep.ReferralCode.Uses))
	}
	if rep.ReferralUse != nil {
		lines = append(lines, r.translator.T("lookup_referral_use", rep.ReferralUse.Code, rep.ReferralUse.Referrer))
	}
	switch {
	case rep.License != nil:
		lines = append(lines, r.translator.T("lookup_license", rep.License.Key, formatExpiry(rep.License.ExpiresAt), rep.License.DeviceID != ""))
	case rep.LicenseErr != nil && !errors.Is(rep.LicenseErr, domain.ErrNoLicense):
		lines = append(lines, r.translator.T("lookup_license_error", rep.LicenseErr))
	}
	if len(rep.Redemptions) == 0 {
		lines = append(lines, r.translator.T("lookup_empty"))
	}
	for _, red := range rep.Redemptions {
		lines = append(lines, r.translator.T("lookup_redemption",
			red.PurchaseRef, red.Product, red.Variant, red.PlanLabel, formatExpiry(red.ExpiresAt), red.Active))
	}
	return strings.Join(lines, "\n")
}

func (r *RealTelegramBotAdapter) statsText(st *model.RedemptionStats) string {
	var b strings.Builder
	b.WriteString(r.translator.T("stats", st.Total, st.LastMonth, st.LastWeek, st.Active, st.Pending, st.Referrals, st.BonusDays))
	variants := make([]string, 0, len(st.ByVariant))
	for v := range st.ByVariant {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	for _, v := range variants {
		b.WriteString("\n" + r.translator.T("stats_variant", v, st.ByVariant[v]))
	}
	return b.String()
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(dateLayout)
}

// formatRemaining renders a duration as "3d 4h" or "45m".
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", int(d/time.Minute))
}
