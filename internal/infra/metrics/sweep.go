package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweepRunsTotal,
		sweepRecordsTotal,
		sweepStaleExternalTotal,
		sweepDuration,
		redemptionsActive,
	)
}

var (
	// status: done|skipped_locked|error
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Sweep passes by pass and status.",
		},
		[]string{"pass", "status"},
	)

	// result: processed|failed
	sweepRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_records_total",
			Help: "Ledger records handled by sweep passes.",
		},
		[]string{"pass", "result"},
	)

	// Rows closed in the ledger while a remote revocation failed.
	sweepStaleExternalTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_stale_external_total",
			Help: "Grants marked inactive although role or license removal failed.",
		},
		[]string{"step"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of sweep passes in seconds.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"pass"},
	)

	redemptionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "redemptions_active",
			Help: "Active granted redemptions as of the last stats read.",
		},
	)
)

func IncSweepRun(pass, status string) {
	sweepRunsTotal.WithLabelValues(norm(pass), norm(status)).Inc()
}

func AddSweepRecords(pass, res string, n int) {
	if n <= 0 {
		return
	}
	sweepRecordsTotal.WithLabelValues(norm(pass), norm(res)).Add(float64(n))
}

func IncSweepStaleExternal(step string) {
	sweepStaleExternalTotal.WithLabelValues(norm(step)).Inc()
}

func ObserveSweep(pass string, seconds float64) {
	sweepDuration.WithLabelValues(norm(pass)).Observe(seconds)
}

func SetActiveRedemptions(n int) {
	redemptionsActive.Set(float64(n))
}
