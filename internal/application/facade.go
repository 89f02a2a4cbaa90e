package application

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/infra/logging"
	"telegram-entitlement-bot/internal/usecase"
)

// Compile-time check
var _ Commands = (*Facade)(nil)

// Facade composes the usecases into the operations the command interfaces
// expose. It owns the last line of error classification.
type Facade struct {
	redeem   usecase.RedemptionUseCase
	referral usecase.ReferralUseCase
	admin    usecase.AdminUseCase
	log      *zerolog.Logger
}

func NewFacade(redeem usecase.RedemptionUseCase, referral usecase.ReferralUseCase, admin usecase.AdminUseCase, logger *zerolog.Logger) *Facade {
	l := logger.With().Str("component", "Facade").Logger()
	return &Facade{redeem: redeem, referral: referral, admin: admin, log: &l}
}

// recoverAs turns a panic inside op into an unexpected *domain.Error. It must
// be deferred directly for recover to take effect.
func (f *Facade) recoverAs(ctx context.Context, op string, errp *error) {
	if r := recover(); r != nil {
		*errp = f.panicErr(ctx, op, r)
	}
}

func (f *Facade) panicErr(ctx context.Context, op string, r interface{}) error {
	logging.With(ctx, f.log).Error().
		Str("op", op).
		Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("recovered panic in command")
	return domain.E(domain.KindUnexpected, op, fmt.Errorf("%w: panic: %v", domain.ErrUnexpected, r))
}

func (f *Facade) Redeem(ctx context.Context, req usecase.RedeemRequest) (res *model.RedemptionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = f.panicErr(ctx, "redeem", r)
		}
		if res == nil {
			res = &model.RedemptionResult{PurchaseRef: req.PurchaseRef, Beneficiary: req.Beneficiary}
		}
		err = domain.Classify("redeem", err)
		res.Err = err
		res.Kind = domain.KindOf(err)
	}()
	return f.redeem.Redeem(ctx, req)
}

func (f *Facade) LookupBeneficiary(ctx context.Context, beneficiary int64) (rep *model.BeneficiaryReport, err error) {
	defer f.recoverAs(ctx, "lookup_beneficiary", &err)
	rep, err = f.admin.LookupBeneficiary(ctx, beneficiary)
	return rep, domain.Classify("lookup_beneficiary", err)
}

func (f *Facade) GetOrCreateReferralCode(ctx context.Context, owner int64) (code *model.ReferralCode, err error) {
	defer f.recoverAs(ctx, "get_or_create_referral_code", &err)
	code, err = f.referral.GetOrCreateCode(ctx, owner)
	return code, domain.Classify("get_or_create_referral_code", err)
}

// ApplyReferral always returns an outcome; a rejection comes with its reason as error.
func (f *Facade) ApplyReferral(ctx context.Context, code string, referred int64) (out *model.ReferralOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = f.panicErr(ctx, "apply_referral", r)
		}
		if out == nil {
			out = &model.ReferralOutcome{Status: model.ReferralRejected, Referred: referred, Reason: err}
		}
	}()
	out, err = f.referral.Apply(ctx, code, referred)
	return out, domain.Classify("apply_referral", err)
}

func (f *Facade) AddTime(ctx context.Context, beneficiary int64, days int) (res *model.AddTimeResult, err error) {
	defer f.recoverAs(ctx, "add_time", &err)
	res, err = f.admin.AddTime(ctx, beneficiary, days)
	return res, domain.Classify("add_time", err)
}

func (f *Facade) Blacklist(ctx context.Context, beneficiary int64, reason string, actor int64) (e *model.BlacklistEntry, err error) {
	defer f.recoverAs(ctx, "blacklist", &err)
	e, err = f.admin.Blacklist(ctx, beneficiary, reason, actor)
	return e, domain.Classify("blacklist", err)
}

func (f *Facade) Unblacklist(ctx context.Context, beneficiary int64) (err error) {
	defer f.recoverAs(ctx, "unblacklist", &err)
	return domain.Classify("unblacklist", f.admin.Unblacklist(ctx, beneficiary))
}

func (f *Facade) Revoke(ctx context.Context, beneficiary int64) (res *model.RevokeResult, err error) {
	defer f.recoverAs(ctx, "revoke", &err)
	res, err = f.admin.Revoke(ctx, beneficiary)
	return res, domain.Classify("revoke", err)
}

func (f *Facade) Stats(ctx context.Context) (st *model.RedemptionStats, err error) {
	defer f.recoverAs(ctx, "stats", &err)
	st, err = f.admin.Stats(ctx)
	return st, domain.Classify("stats", err)
}

func (f *Facade) ReferralSummary(ctx context.Context, owner int64) (s *model.ReferralSummary, err error) {
	defer f.recoverAs(ctx, "referral_summary", &err)
	s, err = f.referral.Summary(ctx, owner)
	return s, domain.Classify("referral_summary", err)
}

func (f *Facade) RecentReferrals(ctx context.Context, limit int) (uses []*model.ReferralUse, err error) {
	defer f.recoverAs(ctx, "recent_referrals", &err)
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	uses, err = f.referral.RecentUses(ctx, limit)
	return uses, domain.Classify("recent_referrals", err)
}

func (f *Facade) KeyTime(ctx context.Context, beneficiary int64) (lic *model.LicenseInfo, err error) {
	defer f.recoverAs(ctx, "key_time", &err)
	lic, err = f.admin.KeyTime(ctx, beneficiary)
	return lic, domain.Classify("key_time", err)
}

func (f *Facade) ResetDevice(ctx context.Context, beneficiary int64) (err error) {
	defer f.recoverAs(ctx, "reset_device", &err)
	return domain.Classify("reset_device", f.admin.ResetDevice(ctx, beneficiary))
}
