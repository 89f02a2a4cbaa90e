package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"telegram-entitlement-bot/internal/infra/api"
	"telegram-entitlement-bot/internal/infra/metrics"
	"telegram-entitlement-bot/internal/infra/sched"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the sweep workers and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadServeConfig()
	if err != nil {
		return err
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(Version, GitCommit)

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.close()

	checks := map[string]api.HealthCheck{
		"postgres": func(ctx context.Context) error { return a.pool.Ping(ctx) },
		"redis":    a.redis.Ping,
	}
	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if cfg.Admin.JWTSecret == "" {
		logger.Warn().Msg("admin.jwt_secret not set; /api/v1 answers 403")
	}
	server := api.NewServer(cfg.Admin.Port, auth, a.facade, checks, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error {
		return ignoreCanceled(sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, a.sweep, logger).Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(sched.NewReminderWorker(cfg.Scheduler.ReminderInterval, a.sweep, logger).Run(gctx))
	})
	g.Go(func() error {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				metrics.ObservePool(a.pool.Stat())
			}
		}
	})
	if a.bot != nil {
		g.Go(func() error { return ignoreCanceled(a.bot.StartPolling(gctx)) })
	} else {
		logger.Warn().Msg("telegram command interface disabled")
	}

	logger.Info().Str("version", Version).Int("admin_port", cfg.Admin.Port).Msg("service started")
	err = g.Wait()
	logger.Info().Err(err).Msg("service stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
