package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/usecase"
)

// ExpiryWorker periodically closes expired grants via the sweep use case.
type ExpiryWorker struct {
	interval time.Duration
	sweep    usecase.SweepUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, sweep usecase.SweepUseCase, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		sweep:    sweep,
		log:      &exprLog,
	}
}

// Run sweeps once on startup, then on every tick until ctx is done.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	w.tick(ctx)
	err := loop(ctx, w.interval, w.tick)
	w.log.Info().Msg("Stopping expiry worker")
	return err
}

// RunOnce executes a single expiry pass.
func (w *ExpiryWorker) RunOnce(ctx context.Context) (*model.SweepReport, error) {
	return runPass(ctx, w.log, "expiry", w.interval, w.sweep.RunExpiryPass)
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		w.log.Error().Err(err).Msg("expiry worker error")
	}
}
