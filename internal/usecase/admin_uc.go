// File: internal/usecase/admin_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/domain/ports/adapter"
	"telegram-entitlement-bot/internal/domain/ports/repository"
	"telegram-entitlement-bot/internal/infra/i18n"
	"telegram-entitlement-bot/internal/infra/metrics"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

const maxAddDays = 3650

// AdminUseCase covers the staff side of the command interface.
type AdminUseCase interface {
	LookupBeneficiary(ctx context.Context, beneficiary int64) (*model.BeneficiaryReport, error)
	AddTime(ctx context.Context, beneficiary int64, days int) (*model.AddTimeResult, error)
	Blacklist(ctx context.Context, beneficiary int64, reason string, actor int64) (*model.BlacklistEntry, error)
	Unblacklist(ctx context.Context, beneficiary int64) error
	Revoke(ctx context.Context, beneficiary int64) (*model.RevokeResult, error)
	Stats(ctx context.Context) (*model.RedemptionStats, error)
	KeyTime(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error)
	ResetDevice(ctx context.Context, beneficiary int64) error
}

type adminUC struct {
	redemptions repository.RedemptionRepository
	blacklist   repository.BlacklistRepository
	referrals   repository.ReferralRepository
	license     adapter.LicenseService
	platform    adapter.PlatformBinding
	translator  *i18n.Translator
	now         func() time.Time
	log         *zerolog.Logger
}

func NewAdminUseCase(
	redemptions repository.RedemptionRepository,
	blacklist repository.BlacklistRepository,
	referrals repository.ReferralRepository,
	license adapter.LicenseService,
	platform adapter.PlatformBinding,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *adminUC {
	l := logger.With().Str("component", "AdminUseCase").Logger()
	return &adminUC{
		redemptions: redemptions,
		blacklist:   blacklist,
		referrals:   referrals,
		license:     license,
		platform:    platform,
		translator:  translator,
		now:         func() time.Time { return time.Now().UTC() },
		log:         &l,
	}
}

func (uc *adminUC) LookupBeneficiary(ctx context.Context, beneficiary int64) (*model.BeneficiaryReport, error) {
	const op = "lookup_beneficiary"
	if beneficiary == 0 {
		return nil, domain.E(domain.KindValidation, op, domain.ErrInvalidArgument)
	}
	rep := &model.BeneficiaryReport{Beneficiary: beneficiary}

	reds, err := uc.redemptions.ListByBeneficiary(ctx, repository.NoTX, beneficiary)
	if err != nil {
		return nil, domain.E(domain.KindUnexpected, op, err)
	}
	rep.Redemptions = reds

	if e, err := uc.blacklist.Find(ctx, repository.NoTX, beneficiary); err == nil {
		rep.Blacklist = e
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.E(domain.KindUnexpected, op, err)
	}
	if c, err := uc.referrals.FindCodeByOwner(ctx, repository.NoTX, beneficiary); err == nil {
		rep.ReferralCode = c
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.E(domain.KindUnexpected, op, err)
	}
	if u, err := uc.referrals.FindUseByReferred(ctx, repository.NoTX, beneficiary); err == nil {
		rep.ReferralUse = u
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.E(domain.KindUnexpected, op, err)
	}

	// Live license state is informative only; the ledger answer stands without it.
	lic, err := uc.license.Lookup(ctx, beneficiary)
	switch {
	case err == nil:
		rep.License = lic
	case errors.Is(err, domain.ErrNoLicense):
	default:
		rep.LicenseErr = err
		uc.log.Warn().Err(err).Int64("beneficiary", beneficiary).Msg("license lookup failed during beneficiary lookup")
	}
	return rep, nil
}

func (uc *adminUC) AddTime(ctx context.Context, beneficiary int64, days int) (*model.AddTimeResult, error) {
	const op = "add_time"
	if beneficiary == 0 || days < 1 || days > maxAddDays {
		return nil, domain.E(domain.KindValidation, op, domain.ErrInvalidArgument)
	}

	lic, err := uc.license.Lookup(ctx, beneficiary)
	if err != nil {
		return nil, domain.Classify(op, err)
	}
	if lic.IsLifetime() {
		return nil, domain.E(domain.KindValidation, op, domain.ErrLifetimeLicense)
	}

	ext, err := uc.license.Extend(ctx, lic.Key, days)
	if err != nil {
		return nil, domain.Classify(op, err)
	}
	if ext.Lifetime {
		return nil, domain.E(domain.KindValidation, op, domain.ErrLifetimeLicense)
	}

	res := &model.AddTimeResult{Beneficiary: beneficiary, Key: lic.Key, OldExpiry: ext.OldExpiry, NewExpiry: ext.NewExpiry}
	log := uc.log.With().Int64("beneficiary", beneficiary).Int("days", days).Logger()

	// Keep the ledger expiry in step with the key so the sweep does not close
	// a grant the license service still honours.
	res.Steps = append(res.Steps, runStep(ctx, &log, model.StepExtendLedger, func(ctx context.Context) error {
		_, err := uc.redemptions.ExtendLatestActive(ctx, repository.NoTX, beneficiary, *ext.NewExpiry)
		return err
	}))
	res.Steps = append(res.Steps, runStep(ctx, &log, model.StepNotify, func(ctx context.Context) error {
		return uc.platform.Notify(ctx, beneficiary, uc.translator.T("time_added_notice",
			days, ext.NewExpiry.UTC().Format(time.RFC1123)))
	}))

	log.Info().Time("new_expiry", *ext.NewExpiry).Msg("time added")
	return res, nil
}

func (uc *adminUC) Blacklist(ctx context.Context, beneficiary int64, reason string, actor int64) (*model.BlacklistEntry, error) {
	const op = "blacklist"
	e, err := model.NewBlacklistEntry(beneficiary, reason, actor, uc.now())
	if err != nil {
		return nil, domain.E(domain.KindValidation, op, err)
	}
	if err := uc.blacklist.Add(ctx, repository.NoTX, e); err != nil {
		return nil, domain.Classify(op, err)
	}
	uc.log.Info().Int64("beneficiary", beneficiary).Int64("actor", actor).Str("reason", e.Reason).Msg("beneficiary blacklisted")
	return e, nil
}

func (uc *adminUC) Unblacklist(ctx context.Context, beneficiary int64) error {
	const op = "unblacklist"
	if beneficiary == 0 {
		return domain.E(domain.KindValidation, op, domain.ErrInvalidArgument)
	}
	removed, err := uc.blacklist.Remove(ctx, repository.NoTX, beneficiary)
	if err != nil {
		return domain.Classify(op, err)
	}
	if !removed {
		return domain.E(domain.KindNotFound, op, domain.ErrNotFound)
	}
	uc.log.Info().Int64("beneficiary", beneficiary).Msg("beneficiary removed from blacklist")
	return nil
}

// Revoke closes every active grant of beneficiary now, independent of expiry.
func (uc *adminUC) Revoke(ctx context.Context, beneficiary int64) (*model.RevokeResult, error) {
	const op = "revoke"
	if beneficiary == 0 {
		return nil, domain.E(domain.KindValidation, op, domain.ErrInvalidArgument)
	}
	res := &model.RevokeResult{Beneficiary: beneficiary}
	log := uc.log.With().Int64("beneficiary", beneficiary).Logger()

	res.Steps = append(res.Steps, runStep(ctx, &log, model.StepRevokeRole, func(ctx context.Context) error {
		return uc.platform.RevokeRole(ctx, beneficiary)
	}))

	lic, err := uc.license.Lookup(ctx, beneficiary)
	switch {
	case errors.Is(err, domain.ErrNoLicense):
		res.Steps = append(res.Steps, skipStep(model.StepRevokeLicense))
	case err != nil:
		log.Warn().Err(err).Str("step", model.StepRevokeLicense).Msg("best-effort step failed")
		metrics.IncStep(model.StepRevokeLicense, "error")
		res.Steps = append(res.Steps, model.StepResult{Name: model.StepRevokeLicense, Err: err})
	default:
		res.Steps = append(res.Steps, runStep(ctx, &log, model.StepRevokeLicense, func(ctx context.Context) error {
			_, err := uc.license.Revoke(ctx, lic.Key)
			return err
		}))
	}

	n, err := uc.redemptions.DeactivateAll(ctx, repository.NoTX, beneficiary, uc.now())
	if err != nil {
		return res, domain.E(domain.KindUnexpected, op, fmt.Errorf("deactivate grants: %w", err))
	}
	res.Deactivated = n

	if n > 0 {
		res.Steps = append(res.Steps, runStep(ctx, &log, model.StepNotify, func(ctx context.Context) error {
			return uc.platform.Notify(ctx, beneficiary, uc.translator.T("revoked_notice"))
		}))
	}
	log.Info().Int("deactivated", n).Strs("failed_steps", res.Steps.Failed()).Msg("grants revoked")
	return res, nil
}

func (uc *adminUC) Stats(ctx context.Context) (*model.RedemptionStats, error) {
	st, err := uc.redemptions.Stats(ctx, repository.NoTX, uc.now())
	if err != nil {
		return nil, domain.Classify("stats", err)
	}
	metrics.SetActiveRedemptions(st.Active)
	return st, nil
}

func (uc *adminUC) KeyTime(ctx context.Context, beneficiary int64) (*model.LicenseInfo, error) {
	lic, err := uc.license.Lookup(ctx, beneficiary)
	if err != nil {
		return nil, domain.Classify("key_time", err)
	}
	return lic, nil
}

func (uc *adminUC) ResetDevice(ctx context.Context, beneficiary int64) error {
	const op = "reset_device"
	lic, err := uc.license.Lookup(ctx, beneficiary)
	if err != nil {
		return domain.Classify(op, err)
	}
	if err := uc.license.ResetDevice(ctx, lic.Key); err != nil {
		return domain.Classify(op, err)
	}
	uc.log.Info().Int64("beneficiary", beneficiary).Msg("device binding reset")
	return nil
}
