package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// StatusError is an HTTP response the provider answered with.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Retryable reports whether err is worth another attempt: auth hiccups (401),
// timeouts (408), rate limiting (429), 5xx and transport faults.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusUnauthorized,
			se.Code == http.StatusRequestTimeout,
			se.Code == http.StatusTooManyRequests,
			se.Code >= 500:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

// Permanent marks err as not retryable regardless of its class.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func sample() float64 {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Float64()
}

// Hook observes each retry before the wait.
type Hook func(attempt int, delay time.Duration, err error)

// Do runs fn until it succeeds, returns a non-retryable error, the policy is
// exhausted or ctx ends. The last error is returned unwrapped from Permanent.
func Do(ctx context.Context, p Policy, onRetry Hook, fn func(ctx context.Context) error) error {
	var err error
	n := p.attempts()
	for attempt := 0; attempt < n; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if !Retryable(err) || attempt == n-1 {
			return err
		}
		delay := p.NextDelay(attempt, sample())
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}
