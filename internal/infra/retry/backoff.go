package retry

import (
	"math"
	"time"

	"telegram-entitlement-bot/internal/config"
)

// Policy is a bounded exponential backoff with jitter.
type Policy struct {
	Attempts   int
	Initial    time.Duration
	Multiplier float64
	Jitter     float64
	Max        time.Duration
}

// FromConfig converts the YAML retry block.
func FromConfig(c config.RetryConfig) Policy {
	return Policy{
		Attempts:   c.Attempts,
		Initial:    c.Initial,
		Multiplier: c.Multiplier,
		Jitter:     c.Jitter,
		Max:        c.Max,
	}
}

// NextDelay returns the wait before retry number attempt (0-based).
// rng is a uniform sample in [0, 1).
func (p Policy) NextDelay(attempt int, rng float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := float64(p.Initial)
	if base <= 0 {
		base = float64(500 * time.Millisecond)
	}
	multiplier := p.Multiplier
	if multiplier <= 1 {
		multiplier = 2
	}
	delay := base * math.Pow(multiplier, float64(attempt))
	if p.Jitter > 0 {
		j := p.Jitter
		if j > 1 {
			j = 1
		}
		delay = delay * (1 + (rng*2-1)*j)
	}
	if p.Max > 0 && delay > float64(p.Max) {
		delay = float64(p.Max)
	}
	return time.Duration(delay)
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}
