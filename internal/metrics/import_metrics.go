package metrics

import "github.com/prometheus/client_golang/prometheus"

// Import counter vectors
var (
	ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Total number of race imports by outcome",
	}, []string{"outcome"})

	ImportedTeamsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imported_teams_total",
		Help:      "Total number of team records reconstructed by imports",
	})

	ParseWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "parse_warnings_total",
		Help:      "Total number of warnings raised while parsing result documents",
	})

	StintStatsSourceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stint_stats_source_total",
		Help:      "Total number of stints by the source of their best and average lap",
	}, []string{"source"})
)

// Import histograms
var (
	ImportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Duration of import stages in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})
)

// RecordImport records the outcome of an import.
func RecordImport(outcome string, teams, warnings int) {
	ImportsTotal.WithLabelValues(outcome).Inc()
	ImportedTeamsTotal.Add(float64(teams))
	ParseWarningsTotal.Add(float64(warnings))
}

// RecordImportStage records the duration of one import stage.
func RecordImportStage(stage string, durationSeconds float64) {
	ImportDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStintStatsSource records which tier produced a stint's lap figures.
func RecordStintStatsSource(source string) {
	StintStatsSourceTotal.WithLabelValues(source).Inc()
}
