package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"telegram-entitlement-bot/internal/infra/sched"
)

var (
	sweepOnce     bool
	sweepReminder bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the expiry sweep (and optionally the reminder pass) without the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := loadServeConfig()
		if err != nil {
			return err
		}
		a, err := buildApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.close()

		expiry := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, a.sweep, logger)
		reminder := sched.NewReminderWorker(cfg.Scheduler.ReminderInterval, a.sweep, logger)
		if !sweepOnce {
			if sweepReminder {
				go func() { _ = reminder.Run(ctx) }()
			}
			return ignoreCanceled(expiry.Run(ctx))
		}

		report, err := expiry.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("selected", report.Selected).Int("processed", report.Processed).
			Int("failures", report.Failures).Bool("skipped", report.Skipped).Msg("expiry pass done")
		if sweepReminder {
			if report, err = reminder.RunOnce(ctx); err != nil {
				return err
			}
			logger.Info().Int("selected", report.Selected).Int("processed", report.Processed).
				Bool("skipped", report.Skipped).Msg("reminder pass done")
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single pass and exit")
	sweepCmd.Flags().BoolVar(&sweepReminder, "reminders", false, "also run the pre-expiry reminder pass")
}

