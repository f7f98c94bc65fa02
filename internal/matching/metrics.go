package matching

import "github.com/prometheus/client_golang/prometheus"

var (
	// pairOutcomes counts what happened to each selected candidate pair:
	// already_compared, ledger_error, write_failed, cancelled, panic,
	// unlikely, possible or high.
	pairOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_pairs_total",
			Help: "Candidate pairs processed by the matching orchestrator, by outcome.",
		},
		[]string{"outcome"},
	)
	scoreOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_scores_total",
			Help: "Similarity scoring attempts by outcome (ok, error, empty, malformed).",
		},
		[]string{"outcome"},
	)
	notifyOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_notifications_total",
			Help: "Confirmed match writes by outcome (created, duplicate, skipped, error).",
		},
		[]string{"outcome"},
	)
	passDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_pass_duration_seconds",
			Help:    "Duration of one FindPotentialMatches call in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

func init() {
	prometheus.MustRegister(pairOutcomes, scoreOutcomes, notifyOutcomes, passDuration)
}
