package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		redemptionsTotal,
		referralAppliesTotal,
		bestEffortStepsTotal,
	)
}

var (
	// kind: ok|validation|already_processed|blocked|upstream_*|partial_success|unexpected
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption attempts by outcome kind.",
		},
		[]string{"kind"},
	)

	referralAppliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_applies_total",
			Help: "Referral code applications by status.",
		},
		[]string{"status"},
	)

	bestEffortStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "best_effort_steps_total",
			Help: "Outcome of individual best-effort actions by step.",
		},
		[]string{"step", "result"}, // result: ok|error|skipped
	)
)

func IncRedemption(kind string) {
	redemptionsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncReferralApply(status string) {
	referralAppliesTotal.WithLabelValues(norm(status)).Inc()
}

func IncStep(step, res string) {
	bestEffortStepsTotal.WithLabelValues(norm(step), norm(res)).Inc()
}
