package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain/model"
	"telegram-entitlement-bot/internal/infra/metrics"
)

// runStep executes one best-effort action and records its outcome. A failure
// is logged at warn and returned in the StepResult, never propagated.
func runStep(ctx context.Context, log *zerolog.Logger, name string, fn func(ctx context.Context) error) model.StepResult {
	started := time.Now()
	err := fn(ctx)
	if err != nil {
		log.Warn().Err(err).Str("step", name).Dur("took", time.Since(started)).Msg("best-effort step failed")
		metrics.IncStep(name, "error")
		return model.StepResult{Name: name, Err: err}
	}
	metrics.IncStep(name, "ok")
	return model.StepResult{Name: name, OK: true}
}

func skipStep(name string) model.StepResult {
	metrics.IncStep(name, "skipped")
	return model.StepResult{Name: name, Skipped: true}
}
