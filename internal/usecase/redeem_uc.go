// File: internal/usecase/redeem_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/infra/logging"
	"telegram-entitlement-bot/internal/infra/metrics"
)

// Compile-time check
var _ RedemptionUseCase = (*redeemUC)(nil)

// RedeemRequest is one purchase-to-grant request. Actor defaults to Beneficiary.
type RedeemRequest struct {
	PurchaseRef  string
	Beneficiary  int64
	Actor        int64
	ReferralCode string
}

type RedemptionUseCase interface {
	// Redeem always returns a result. The error is the classified reason when
	// the result is not a full success, nil otherwise.
	Redeem(ctx context.Context, req RedeemRequest) (*model.RedemptionResult, error)
}

// RedeemOptions carries the tunables of the reconciler.
type RedeemOptions struct {
	StaleAfter time.Duration
	// Products are keywords a product name must contain to receive a license key.
	Products []string
	Dev      bool
}

type redeemUC struct {
	redemptions repository.RedemptionRepository
	blacklist   repository.BlacklistRepository
	payments    adapter.PaymentVerifier
	license     adapter.LicenseService
	platform    adapter.PlatformBinding
	referrals   ReferralUseCase
	opts        RedeemOptions
	now         func() time.Time
	log         *zerolog.Logger
}

func NewRedemptionUseCase(
	redemptions repository.RedemptionRepository,
	blacklist repository.BlacklistRepository,
	payments adapter.PaymentVerifier,
	license adapter.LicenseService,
	platform adapter.PlatformBinding,
	referrals ReferralUseCase,
	opts RedeemOptions,
	logger *zerolog.Logger,
) *redeemUC {
	l := logger.With().Str("component", "RedemptionUseCase").Logger()
	return &redeemUC{
		redemptions: redemptions,
		blacklist:   blacklist,
		payments:    payments,
		license:     license,
		platform:    platform,
		referrals:   referrals,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		log:         &l,
	}
}

const opRedeem = "redeem"

func (uc *redeemUC) Redeem(ctx context.Context, req RedeemRequest) (*model.RedemptionResult, error) {
	defer logging.TraceDuration(uc.log, "RedemptionUseCase.Redeem")()
	res, err := uc.redeem(ctx, req)
	res.Err = err
	res.Kind = domain.KindOf(err)
	metrics.IncRedemption(string(res.Kind))

	ev := uc.log.Info()
	if res.Kind == domain.KindUnexpected {
		ev = uc.log.Error()
	} else if err != nil {
		ev = uc.log.Warn()
	}
	ev.Str("purchase_ref", res.PurchaseRef).
		Int64("beneficiary", req.Beneficiary).
		Int64("actor", req.Actor).
		Str("kind", string(res.Kind)).
		Strs("failed_steps", res.Steps.Failed()).
		AnErr("reason", err).
		Msg("redemption finished")
	return res, err
}

func (uc *redeemUC) redeem(ctx context.Context, req RedeemRequest) (*model.RedemptionResult, error) {
	res := &model.RedemptionResult{PurchaseRef: strings.TrimSpace(req.PurchaseRef), Beneficiary: req.Beneficiary}
	if req.Actor == 0 {
		req.Actor = req.Beneficiary
	}

	ref, err := model.NormalizePurchaseRef(req.PurchaseRef)
	if err != nil || req.Beneficiary == 0 {
		return res, domain.E(domain.KindValidation, opRedeem, domain.ErrInvalidArgument)
	}
	res.PurchaseRef = ref

	// Idempotency gate.
	prior, err := uc.redemptions.FindByPurchaseRef(ctx, repository.NoTX, ref)
	switch {
	case err == nil:
		res.RedeemedBy = prior.Beneficiary
		return res, domain.E(domain.KindAlreadyProcessed, opRedeem, domain.ErrAlreadyRedeemed)
	case !errors.Is(err, domain.ErrNotFound):
		return res, domain.E(domain.KindUnexpected, opRedeem, err)
	}

	// Beneficiary gate.
	if _, err := uc.blacklist.Find(ctx, repository.NoTX, req.Beneficiary); err == nil {
		return res, domain.E(domain.KindBlocked, opRedeem, domain.ErrBlocked)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return res, domain.E(domain.KindUnexpected, opRedeem, err)
	}

	// Payment verification, fail closed.
	purchase, err := uc.payments.Fetch(ctx, ref)
	if err != nil {
		return res, domain.Classify(opRedeem, err)
	}
	res.Product, res.Variant = purchase.Product, purchase.Variant
	if !purchase.IsPaid() {
		return res, domain.E(domain.KindUpstreamRejected, opRedeem,
			fmt.Errorf("%w: %s", domain.ErrPaymentInvalid, purchase.RejectReason()))
	}
	now := uc.now()
	if purchase.IsStale(now, uc.opts.StaleAfter) {
		return res, domain.E(domain.KindUpstreamRejected, opRedeem, domain.ErrPaymentStale)
	}

	plan := model.ResolvePlan(purchase.Product, purchase.Variant)
	res.PlanLabel = plan.Label

	// Claim: the purchase_ref constraint admits exactly one winner.
	red, err := model.NewPendingRedemption(ulid.Make().String(), ref, req.Beneficiary, req.Actor, purchase, plan, now)
	if err != nil {
		return res, domain.E(domain.KindValidation, opRedeem, err)
	}
	if err := uc.redemptions.Claim(ctx, repository.NoTX, red); err != nil {
		if errors.Is(err, domain.ErrAlreadyRedeemed) {
			if winner, ferr := uc.redemptions.FindByPurchaseRef(ctx, repository.NoTX, ref); ferr == nil {
				res.RedeemedBy = winner.Beneficiary
			}
			return res, domain.E(domain.KindAlreadyProcessed, opRedeem, err)
		}
		return res, domain.E(domain.KindUnexpected, opRedeem, err)
	}

	// Remote effects, each best-effort.
	grant := runStep(ctx, uc.log, model.StepGrantRole, func(ctx context.Context) error {
		return uc.platform.GrantRole(ctx, req.Beneficiary)
	})
	res.Steps = append(res.Steps, grant)
	red.RoleGranted = grant.OK

	issue := uc.issueLicense(ctx, red, purchase)
	res.Steps = append(res.Steps, issue)

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		outcome, rerr := uc.referrals.Apply(ctx, code, req.Beneficiary)
		res.Referral = outcome
		step := model.StepResult{Name: model.StepReferral, OK: rerr == nil, Err: rerr}
		res.Steps = append(res.Steps, step)
		if outcome.Accepted() {
			c := outcome.Code
			red.ReferralCode = &c
		}
	}

	red.Active = true
	if err := uc.redemptions.Finalize(ctx, repository.NoTX, red); err != nil {
		// Remote effects are applied; the pending row keeps blocking re-redemption.
		uc.log.Error().Err(err).Str("purchase_ref", ref).Str("id", red.ID).Msg("failed to finalize claimed redemption")
		return res, domain.E(domain.KindUnexpected, opRedeem, err)
	}

	res.Granted = true
	res.ExpiresAt = red.ExpiresAt
	if red.LicenseKey != nil {
		res.LicenseKey = *red.LicenseKey
	}

	var partial []error
	if !grant.OK {
		partial = append(partial, fmt.Errorf("%w: %v", domain.ErrRoleGrantFailed, grant.Err))
	}
	if !issue.OK && !issue.Skipped {
		partial = append(partial, fmt.Errorf("%w: %v", domain.ErrLicenseIssueFailed, issue.Err))
	}
	if len(partial) > 0 {
		return res, domain.E(domain.KindPartialSuccess, opRedeem, errors.Join(partial...))
	}
	return res, nil
}

// issueLicense creates or refreshes the beneficiary's key and aligns the
// ledger expiry with what the license service now holds.
func (uc *redeemUC) issueLicense(ctx context.Context, red *model.Redemption, p *model.Purchase) model.StepResult {
	if !uc.productEligible(p.Product) {
		return skipStep(model.StepIssueLicense)
	}
	var info *model.LicenseInfo
	step := runStep(ctx, uc.log, model.StepIssueLicense, func(ctx context.Context) error {
		var err error
		info, err = uc.license.CreateOrRefresh(ctx, red.Beneficiary, red.PlanLabel,
			model.LicenseNote(p.Product, p.Variant, red.PurchaseRef))
		return err
	})
	if !step.OK {
		return step
	}
	key := info.Key
	red.LicenseKey = &key
	// A refresh never shortens an existing key; follow it when it runs longer.
	if red.ExpiresAt != nil && info.ExpiresAt != nil && info.ExpiresAt.After(*red.ExpiresAt) {
		exp := *info.ExpiresAt
		red.ExpiresAt = &exp
	}
	uc.log.Debug().Int64("beneficiary", red.Beneficiary).Str("key", logging.Redact(key, uc.opts.Dev)).Msg("license issued")
	return step
}

func (uc *redeemUC) productEligible(product string) bool {
	if len(uc.opts.Products) == 0 {
		return true
	}
	p := strings.ToLower(product)
	for _, kw := range uc.opts.Products {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(p, kw) {
			return true
		}
	}
	return false
}
