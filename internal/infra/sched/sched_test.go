//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/domain/model"
)

type fakeSweep struct {
	expiryCalls   atomic.Int32
	reminderCalls atomic.Int32

	ExpiryFunc   func(ctx context.Context) (*model.SweepReport, error)
	ReminderFunc func(ctx context.Context) (*model.SweepReport, error)
}

func (f *fakeSweep) RunExpiryPass(ctx context.Context) (*model.SweepReport, error) {
	f.expiryCalls.Add(1)
	if f.ExpiryFunc != nil {
		return f.ExpiryFunc(ctx)
	}
	return &model.SweepReport{Pass: "expiry"}, nil
}

func (f *fakeSweep) RunReminderPass(ctx context.Context) (*model.SweepReport, error) {
	f.reminderCalls.Add(1)
	if f.ReminderFunc != nil {
		return f.ReminderFunc(ctx)
	}
	return &model.SweepReport{Pass: "reminder"}, nil
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestExpiryWorker(t *testing.T) {
	t.Run("should sweep on startup and keep going after a panic", func(t *testing.T) {
		// --- Arrange ---
		sweep := &fakeSweep{}
		sweep.ExpiryFunc = func(ctx context.Context) (*model.SweepReport, error) {
			if sweep.expiryCalls.Load() == 2 {
				panic("boom")
			}
			return &model.SweepReport{Pass: "expiry"}, errors.New("transient")
		}
		w := NewExpiryWorker(5*time.Millisecond, sweep, newTestLogger())
		ctx, cancel := context.WithCancel(context.Background())

		// --- Act ---
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		require.Eventually(t, func() bool { return sweep.expiryCalls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
		cancel()

		// --- Assert ---
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("worker did not stop")
		}
		assert.Zero(t, sweep.reminderCalls.Load())
	})

	t.Run("should turn a panic into an unexpected error", func(t *testing.T) {
		sweep := &fakeSweep{ExpiryFunc: func(ctx context.Context) (*model.SweepReport, error) { panic("boom") }}
		w := NewExpiryWorker(time.Minute, sweep, newTestLogger())

		_, err := w.RunOnce(context.Background())

		assert.ErrorIs(t, err, domain.ErrUnexpected)
	})

	t.Run("should bound a pass by the interval", func(t *testing.T) {
		sweep := &fakeSweep{ExpiryFunc: func(ctx context.Context) (*model.SweepReport, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return &model.SweepReport{}, nil
		}}

		_, err := NewExpiryWorker(time.Minute, sweep, newTestLogger()).RunOnce(context.Background())

		require.NoError(t, err)
	})
}

func TestReminderWorker(t *testing.T) {
	t.Run("should not run before the first tick", func(t *testing.T) {
		sweep := &fakeSweep{}
		w := NewReminderWorker(time.Hour, sweep, newTestLogger())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := w.Run(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Zero(t, sweep.reminderCalls.Load())
	})

	t.Run("should run on each tick", func(t *testing.T) {
		sweep := &fakeSweep{}
		w := NewReminderWorker(5*time.Millisecond, sweep, newTestLogger())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() { _ = w.Run(ctx) }()

		require.Eventually(t, func() bool { return sweep.reminderCalls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
		assert.Zero(t, sweep.expiryCalls.Load())
	})
}
