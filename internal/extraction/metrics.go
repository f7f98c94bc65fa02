package extraction

import "github.com/prometheus/client_golang/prometheus"

// extractionOutcomes counts how each stage produced its result:
// "llm", "heuristic" or "fallback" (and "cache" for the categorizer).
var extractionOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "extraction_outcomes_total",
		Help: "Attribute extraction and categorization results by stage and source.",
	},
	[]string{"stage", "source"},
)

func init() {
	prometheus.MustRegister(extractionOutcomes)
}
