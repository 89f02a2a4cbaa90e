// File: internal/usecase/referral_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/infra/metrics"
)

// Compile-time check
var _ ReferralUseCase = (*referralUC)(nil)

const maxCodeAttempts = 10

type ReferralUseCase interface {
	// GetOrCreateCode returns the owner's code, creating it on first request.
	GetOrCreateCode(ctx context.Context, owner int64) (*model.ReferralCode, error)
	// Apply records that referred used code and tries to credit the referrer.
	// Rejections return a rejected outcome together with the reason as error.
	Apply(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error)
	// Summary is the owner's view: code, uses and earned bonus days.
	Summary(ctx context.Context, owner int64) (*model.ReferralSummary, error)
	RecentUses(ctx context.Context, limit int) ([]*model.ReferralUse, error)
}

type referralUC struct {
	referrals   repository.ReferralRepository
	redemptions repository.RedemptionRepository
	license     adapter.LicenseService
	platform    adapter.PlatformBinding
	tm          repository.TransactionManager
	translator  *i18n.Translator
	bonusDays   int
	log         *zerolog.Logger
}

func NewReferralUseCase(
	referrals repository.ReferralRepository,
	redemptions repository.RedemptionRepository,
	license adapter.LicenseService,
	platform adapter.PlatformBinding,
	tm repository.TransactionManager,
	translator *i18n.Translator,
	bonusDays int,
	logger *zerolog.Logger,
) *referralUC {
	if bonusDays <= 0 {
		bonusDays = 3
	}
	l := logger.With().Str("component", "ReferralUseCase").Logger()
	return &referralUC{
		referrals:   referrals,
		redemptions: redemptions,
		license:     license,
		platform:    platform,
		tm:          tm,
		translator:  translator,
		bonusDays:   bonusDays,
		log:         &l,
	}
}

func (uc *referralUC) GetOrCreateCode(ctx context.Context, owner int64) (*model.ReferralCode, error) {
	if owner == 0 {
		return nil, domain.ErrInvalidArgument
	}
	existing, err := uc.referrals.FindCodeByOwner(ctx, repository.NoTX, owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}
		c := &model.ReferralCode{Owner: owner, Code: code, BonusDays: uc.bonusDays, CreatedAt: time.Now().UTC()}
		err = uc.referrals.CreateCode(ctx, repository.NoTX, c)
		if err == nil {
			uc.log.Info().Int64("owner", owner).Str("code", code).Msg("referral code created")
			return c, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		// Either the code collided or a concurrent request created the owner's code.
		if mine, ferr := uc.referrals.FindCodeByOwner(ctx, repository.NoTX, owner); ferr == nil {
			return mine, nil
		}
		uc.log.Debug().Int("attempt", attempt+1).Msg("referral code collision; regenerating")
	}
	return nil, fmt.Errorf("%w: no free referral code after %d attempts", domain.ErrUnexpected, maxCodeAttempts)
}

func (uc *referralUC) Apply(ctx context.Context, code string, referred int64) (*model.ReferralOutcome, error) {
	out := &model.ReferralOutcome{Status: model.ReferralRejected, Referred: referred}
	reject := func(err error) (*model.ReferralOutcome, error) {
		out.Reason = err
		metrics.IncReferralApply(string(model.ReferralRejected))
		return out, err
	}

	normalized, err := model.NormalizeReferralCode(code)
	if err != nil || referred == 0 {
		return reject(domain.ErrInvalidArgument)
	}
	out.Code = normalized

	rc, err := uc.referrals.FindCode(ctx, repository.NoTX, normalized)
	if errors.Is(err, domain.ErrNotFound) {
		return reject(domain.ErrReferralUnknownCode)
	}
	if err != nil {
		return reject(err)
	}
	out.Referrer = rc.Owner
	if rc.Owner == referred {
		return reject(domain.ErrReferralSelf)
	}
	if _, err := uc.referrals.FindUseByReferred(ctx, repository.NoTX, referred); err == nil {
		return reject(domain.ErrReferralAlreadyUsed)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return reject(err)
	}

	// The unique constraint on referred decides concurrent applies; the counter
	// moves in the same transaction so it only counts recorded uses.
	use := &model.ReferralUse{Code: normalized, Referrer: rc.Owner, Referred: referred, CreatedAt: time.Now().UTC()}
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.referrals.InsertUse(ctx, tx, use); err != nil {
			return err
		}
		return uc.referrals.IncrementUses(ctx, tx, normalized)
	})
	if err != nil {
		return reject(err)
	}

	days := rc.BonusDays
	if days <= 0 {
		days = uc.bonusDays
	}
	uc.creditReferrer(ctx, out, rc.Owner, days)
	metrics.IncReferralApply(string(out.Status))
	return out, nil
}

// creditReferrer materializes the bonus. Every failure here is soft: the use
// row is already recorded and stays at 0 awarded days.
func (uc *referralUC) creditReferrer(ctx context.Context, out *model.ReferralOutcome, referrer int64, days int) {
	lic, err := uc.license.Lookup(ctx, referrer)
	switch {
	case errors.Is(err, domain.ErrNoLicense):
		out.Status = model.ReferralNoLicense
		out.Reason = domain.ErrNoLicense
		return
	case err != nil:
		out.Status = model.ReferralBonusFailed
		out.Reason = err
		uc.log.Warn().Err(err).Int64("referrer", referrer).Msg("referral bonus lookup failed")
		return
	case lic.IsLifetime():
		out.Status = model.ReferralLifetime
		out.Reason = domain.ErrLifetimeLicense
		return
	}

	res, err := uc.license.Extend(ctx, lic.Key, days)
	switch {
	case err != nil:
		out.Status = model.ReferralBonusFailed
		out.Reason = err
		uc.log.Warn().Err(err).Int64("referrer", referrer).Msg("referral bonus extend failed")
		return
	case res.Lifetime:
		out.Status = model.ReferralLifetime
		out.Reason = domain.ErrLifetimeLicense
		return
	}

	out.Status = model.ReferralApplied
	out.BonusDaysAwarded = days
	out.NewExpiry = res.NewExpiry

	if err := uc.referrals.RecordBonus(ctx, repository.NoTX, out.Referred, days); err != nil {
		uc.log.Error().Err(err).Int64("referred", out.Referred).Msg("failed to record awarded bonus days")
	}
	out.Steps = append(out.Steps, runStep(ctx, uc.log, model.StepExtendLedger, func(ctx context.Context) error {
		_, err := uc.redemptions.ExtendLatestActive(ctx, repository.NoTX, referrer, *res.NewExpiry)
		return err
	}))
	out.Steps = append(out.Steps, runStep(ctx, uc.log, model.StepNotify, func(ctx context.Context) error {
		return uc.platform.Notify(ctx, referrer, uc.translator.T("referral_bonus_notice",
			out.Code, days, res.NewExpiry.UTC().Format(time.RFC1123)))
	}))
}

func (uc *referralUC) Summary(ctx context.Context, owner int64) (*model.ReferralSummary, error) {
	s := &model.ReferralSummary{}
	code, err := uc.referrals.FindCodeByOwner(ctx, repository.NoTX, owner)
	switch {
	case err == nil:
		s.Code = code
		uses, err := uc.referrals.ListUsesByReferrer(ctx, repository.NoTX, owner)
		if err != nil {
			return nil, err
		}
		s.Uses = uses
		for _, u := range uses {
			s.BonusDays += u.BonusDaysAwarded
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	used, err := uc.referrals.FindUseByReferred(ctx, repository.NoTX, owner)
	switch {
	case err == nil:
		s.UsedByMe = used
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return s, nil
}

func (uc *referralUC) RecentUses(ctx context.Context, limit int) ([]*model.ReferralUse, error) {
	return uc.referrals.ListRecentUses(ctx, repository.NoTX, limit)
}
