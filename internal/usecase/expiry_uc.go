// File: internal/usecase/expiry_uc.go
package usecase

import (
	"context"
	"errors"
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
var _ SweepUseCase = (*sweepUC)(nil)

const (
	PassExpiry   = "expiry"
	PassReminder = "reminder"

	lockExpiry   = "sweep:expiry"
	lockReminder = "sweep:reminder"
)

type SweepUseCase interface {
	// RunExpiryPass closes every active grant whose expiry has passed.
	RunExpiryPass(ctx context.Context) (*model.SweepReport, error)
	// RunReminderPass notifies beneficiaries whose grant expires inside
	// [now+lead, now+lead+interval). interval must equal the pass cadence.
	RunReminderPass(ctx context.Context) (*model.SweepReport, error)
}

type SweepOptions struct {
	BatchSize        int
	ReminderLead     time.Duration
	ExpiryInterval   time.Duration
	ReminderInterval time.Duration
	// LockTTL is raised to the pass interval, which also bounds the pass, so
	// the lock cannot lapse while a pass is still running.
	LockTTL time.Duration
}

type sweepUC struct {
	redemptions repository.RedemptionRepository
	license     adapter.LicenseService
	platform    adapter.PlatformBinding
	locker      adapter.Locker
	translator  *i18n.Translator
	opts        SweepOptions
	now         func() time.Time
	log         *zerolog.Logger
}

func NewSweepUseCase(
	redemptions repository.RedemptionRepository,
	license adapter.LicenseService,
	platform adapter.PlatformBinding,
	locker adapter.Locker,
	translator *i18n.Translator,
	opts SweepOptions,
	logger *zerolog.Logger,
) *sweepUC {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = 72 * time.Hour
	}
	if opts.ExpiryInterval <= 0 {
		opts.ExpiryInterval = 10 * time.Minute
	}
	if opts.ReminderInterval <= 0 {
		opts.ReminderInterval = time.Hour
	}
	l := logger.With().Str("component", "SweepUseCase").Logger()
	return &sweepUC{
		redemptions: redemptions,
		license:     license,
		platform:    platform,
		locker:      locker,
		translator:  translator,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		log:         &l,
	}
}

func (uc *sweepUC) RunExpiryPass(ctx context.Context) (*model.SweepReport, error) {
	return uc.guarded(ctx, PassExpiry, lockExpiry, uc.expire)
}

func (uc *sweepUC) RunReminderPass(ctx context.Context) (*model.SweepReport, error) {
	return uc.guarded(ctx, PassReminder, lockReminder, uc.remind)
}

func (uc *sweepUC) lockTTL(pass string) time.Duration {
	bound := uc.opts.ExpiryInterval
	if pass == PassReminder {
		bound = uc.opts.ReminderInterval
	}
	if uc.opts.LockTTL > bound {
		return uc.opts.LockTTL
	}
	return bound
}

// guarded runs pass under the cross-instance lock. A held lock is not an error;
// the report comes back with Skipped set.
func (uc *sweepUC) guarded(ctx context.Context, pass, key string, fn func(context.Context, *model.SweepReport) error) (*model.SweepReport, error) {
	report := &model.SweepReport{Pass: pass}
	started := time.Now()

	token, err := uc.locker.TryLock(ctx, key, uc.lockTTL(pass))
	if errors.Is(err, domain.ErrLockHeld) {
		report.Skipped = true
		metrics.IncSweepRun(pass, "skipped_locked")
		uc.log.Debug().Str("pass", pass).Msg("another instance holds the sweep lock")
		return report, nil
	}
	if err != nil {
		metrics.IncSweepRun(pass, "error")
		return report, domain.E(domain.KindUnexpected, "sweep."+pass, err)
	}
	defer func() {
		// Unlock must not depend on the pass context, which may be done by now.
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.locker.Unlock(uctx, key, token); err != nil {
			uc.log.Warn().Err(err).Str("pass", pass).Msg("failed to release sweep lock")
		}
	}()

	err = fn(ctx, report)
	metrics.ObserveSweep(pass, time.Since(started).Seconds())
	metrics.AddSweepRecords(pass, "ok", report.Processed-report.Failures)
	metrics.AddSweepRecords(pass, "failed", report.Failures)
	if err != nil {
		metrics.IncSweepRun(pass, "error")
		uc.log.Error().Err(err).Str("pass", pass).Msg("sweep pass aborted")
		return report, domain.E(domain.KindUnexpected, "sweep."+pass, err)
	}
	metrics.IncSweepRun(pass, "ok")

	ev := uc.log.Info()
	if report.Failures > 0 {
		ev = uc.log.Warn()
	}
	ev.Str("pass", pass).
		Int("selected", report.Selected).
		Int("processed", report.Processed).
		Int("failures", report.Failures).
		Dur("took", time.Since(started)).
		Msg("sweep pass finished")
	return report, nil
}

func (uc *sweepUC) expire(ctx context.Context, report *model.SweepReport) error {
	now := uc.now()
	rows, err := uc.redemptions.ListExpired(ctx, repository.NoTX, now, uc.opts.BatchSize)
	if err != nil {
		return err
	}
	report.Selected = len(rows)

	for _, r := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		steps := uc.expireOne(ctx, r, now)
		report.Processed++
		if len(steps.Failed()) > 0 {
			report.Failures++
		}
	}
	return nil
}

// expireOne closes one grant. Every remote action is best-effort; the ledger
// flip happens regardless of their outcome so the row is never reprocessed.
func (uc *sweepUC) expireOne(ctx context.Context, r *model.Redemption, now time.Time) model.Steps {
	log := uc.log.With().Str("redemption_id", r.ID).Int64("beneficiary", r.Beneficiary).Logger()
	var steps model.Steps

	// A newer or lifetime grant keeps the role and the shared key alive.
	covered, err := uc.redemptions.HasOtherCoverage(ctx, repository.NoTX, r.Beneficiary, r.ID, now)
	if err != nil {
		log.Warn().Err(err).Msg("coverage check failed; revoking anyway")
		covered = false
	}

	if covered {
		steps = append(steps, skipStep(model.StepRevokeRole), skipStep(model.StepRevokeLicense))
	} else {
		steps = append(steps, runStep(ctx, &log, model.StepRevokeRole, func(ctx context.Context) error {
			return uc.platform.RevokeRole(ctx, r.Beneficiary)
		}))
		if r.LicenseKey != nil && *r.LicenseKey != "" {
			key := *r.LicenseKey
			steps = append(steps, runStep(ctx, &log, model.StepRevokeLicense, func(ctx context.Context) error {
				_, err := uc.license.Revoke(ctx, key)
				return err
			}))
		} else {
			steps = append(steps, skipStep(model.StepRevokeLicense))
		}
	}

	var deactivated bool
	steps = append(steps, runStep(ctx, &log, model.StepDeactivate, func(ctx context.Context) error {
		var err error
		deactivated, err = uc.redemptions.MarkInactive(ctx, repository.NoTX, r.ID, now)
		return err
	}))

	if deactivated {
		// Known gap: a failed revocation leaves external state behind with no
		// active row to retry from. Surface it so staff can clean up.
		for _, name := range []string{model.StepRevokeRole, model.StepRevokeLicense} {
			if st, ok := steps.Find(name); ok && !st.OK && !st.Skipped {
				metrics.IncSweepStaleExternal(name)
				log.Warn().Err(st.Err).Str("step", name).Msg("grant closed with stale external state")
			}
		}
	}

	if deactivated && !covered {
		steps = append(steps, runStep(ctx, &log, model.StepNotify, func(ctx context.Context) error {
			return uc.platform.Notify(ctx, r.Beneficiary, uc.translator.T("expired_notice"))
		}))
	}
	return steps
}

func (uc *sweepUC) remind(ctx context.Context, report *model.SweepReport) error {
	now := uc.now()
	from := now.Add(uc.opts.ReminderLead)
	to := from.Add(uc.opts.ReminderInterval)

	rows, err := uc.redemptions.ListExpiringBetween(ctx, repository.NoTX, from, to)
	if err != nil {
		return err
	}
	report.Selected = len(rows)

	for _, r := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log := uc.log.With().Str("redemption_id", r.ID).Int64("beneficiary", r.Beneficiary).Logger()
		report.Processed++

		// Access continues past this row when a lifetime or later grant exists.
		covered, err := uc.redemptions.HasOtherCoverage(ctx, repository.NoTX, r.Beneficiary, r.ID, *r.ExpiresAt)
		if err != nil {
			log.Warn().Err(err).Msg("coverage check failed; reminding anyway")
		} else if covered {
			log.Debug().Msg("superseded grant, no reminder")
			continue
		}

		left := r.ExpiresAt.Sub(now).Round(time.Hour)
		st := runStep(ctx, &log, model.StepNotify, func(ctx context.Context) error {
			return uc.platform.Notify(ctx, r.Beneficiary, uc.translator.T("expiry_reminder",
				r.PlanLabel, r.ExpiresAt.UTC().Format(time.RFC1123), int(left.Hours()/24)))
		})
		if !st.OK {
			report.Failures++
		}
	}
	return nil
}
