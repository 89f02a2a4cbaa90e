package model

import (
	"strings"
	"time"
)

const Day = 24 * time.Hour

// LabelLifetime is the normalized label of plans without a horizon keyword.
const LabelLifetime = "lifetime"

// horizonKeywords is ordered: the first keyword found in the label wins.
var horizonKeywords = []struct {
	keyword string
	label   string
	horizon time.Duration
}{
	{"week", "week", 7 * Day},
	{"month", "month", 30 * Day},
	{"year", "year", 365 * Day},
}

// Plan is the normalized view of a product/variant pair.
type Plan struct {
	Label    string        // week | month | year | lifetime
	Horizon  time.Duration // zero when Lifetime
	Lifetime bool
}

// PlanFromLabel is the single mapping from free-text plan label to expiry
// horizon. The reconciler and the license client both go through it.
// Matching is a case-insensitive substring search; no keyword means lifetime.
func PlanFromLabel(label string) Plan {
	l := strings.ToLower(label)
	for _, k := range horizonKeywords {
		if strings.Contains(l, k.keyword) {
			return Plan{Label: k.label, Horizon: k.horizon}
		}
	}
	return Plan{Label: LabelLifetime, Lifetime: true}
}

// PlanHorizon reports the horizon of label; ok is false for lifetime plans.
func PlanHorizon(label string) (horizon time.Duration, ok bool) {
	p := PlanFromLabel(label)
	return p.Horizon, !p.Lifetime
}

// ResolvePlan derives the plan of a purchase from its product and variant text.
func ResolvePlan(product, variant string) Plan {
	return PlanFromLabel(product + " " + variant)
}

// ExpiresAt returns nil for lifetime plans.
func (p Plan) ExpiresAt(now time.Time) *time.Time {
	if p.Lifetime {
		return nil
	}
	t := now.Add(p.Horizon)
	return &t
}
