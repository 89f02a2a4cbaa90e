// Package sched runs the periodic sweep passes. Each worker owns its ticker;
// a failing or panicking iteration is logged and the schedule carries on.
package sched

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
)

type passFunc func(ctx context.Context) (*model.SweepReport, error)

// runPass executes one iteration bounded by timeout.
func runPass(ctx context.Context, log *zerolog.Logger, pass string, timeout time.Duration, fn passFunc) (report *model.SweepReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Str("pass", pass).Msg("sweep pass panicked")
			err = fmt.Errorf("%w: panic in %s pass: %v", domain.ErrUnexpected, pass, r)
		}
	}()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

func loop(ctx context.Context, interval time.Duration, tick func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick(ctx)
		}
	}
}
