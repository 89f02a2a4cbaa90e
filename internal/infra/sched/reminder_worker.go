package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/usecase"
)

// ReminderWorker sends pre-expiry reminders. The interval must match the
// window width the sweep use case was built with, otherwise grants are
// reminded twice or never.
type ReminderWorker struct {
	interval time.Duration
	sweep    usecase.SweepUseCase
	log      *zerolog.Logger
}

func NewReminderWorker(interval time.Duration, sweep usecase.SweepUseCase, logger *zerolog.Logger) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	compLog := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		interval: interval,
		sweep:    sweep,
		log:      &compLog,
	}
}

// Run waits for the first tick; a pass on every restart would repeat the
// window the previous process already covered.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reminder worker")
	err := loop(ctx, w.interval, w.tick)
	w.log.Info().Msg("Stopping reminder worker")
	return err
}

func (w *ReminderWorker) RunOnce(ctx context.Context) (*model.SweepReport, error) {
	return runPass(ctx, w.log, "reminder", w.interval, w.sweep.RunReminderPass)
}

func (w *ReminderWorker) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil {
		w.log.Error().Err(err).Msg("reminder worker error")
	}
}
