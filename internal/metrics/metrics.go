package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarvalue_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	RunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solarvalue_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	JoinedHours = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarvalue_joined_hours",
			Help: "Hours kept by the timestamp join in the last run per utility",
		},
		[]string{"utility"},
	)

	DroppedHours = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarvalue_dropped_hours",
			Help: "Generation hours dropped in the last run per utility and missing source",
		},
		[]string{"utility", "source"},
	)

	AnnualScalar = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarvalue_annual_scalar_dollars_per_kw",
			Help: "Normalized annual value of the last run per utility and regime",
		},
		[]string{"utility", "regime"},
	)

	UnhandledTariffs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solarvalue_unhandled_tariff_sites",
			Help: "Sites with an unhandled NEM tariff version in the last run",
		},
	)

	UnmatchedSites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solarvalue_unmatched_sites",
			Help: "Sites skipped in the last run because their utility has no configuration",
		},
	)
)

// JoinStats is one utility's join outcome.
type JoinStats struct {
	Utility    string
	Joined     int
	MissingTOU int
	MissingLMP int
}

// ScalarStats is one utility's annual scalars.
type ScalarStats struct {
	Utility string
	Flat    float64
	TOU     float64
	LMP     float64
}

// UpdateRunMetrics records a completed run.
func UpdateRunMetrics(startedAt time.Time, joins []JoinStats, scalars []ScalarStats, unhandled, unmatched int) {
	RunDurationSeconds.Observe(time.Since(startedAt).Seconds())
	RunsTotal.WithLabelValues("success").Inc()
	// Utilities dropped from the configurations must not keep stale series.
	JoinedHours.Reset()
	DroppedHours.Reset()
	AnnualScalar.Reset()
	for _, j := range joins {
		JoinedHours.WithLabelValues(j.Utility).Set(float64(j.Joined))
		DroppedHours.WithLabelValues(j.Utility, "tou").Set(float64(j.MissingTOU))
		DroppedHours.WithLabelValues(j.Utility, "lmp").Set(float64(j.MissingLMP))
	}
	for _, s := range scalars {
		AnnualScalar.WithLabelValues(s.Utility, "flat").Set(s.Flat)
		AnnualScalar.WithLabelValues(s.Utility, "tou").Set(s.TOU)
		AnnualScalar.WithLabelValues(s.Utility, "lmp").Set(s.LMP)
	}
	UnhandledTariffs.Set(float64(unhandled))
	UnmatchedSites.Set(float64(unmatched))
}

// RunFailed records a run that aborted.
func RunFailed(startedAt time.Time) {
	RunDurationSeconds.Observe(time.Since(startedAt).Seconds())
	RunsTotal.WithLabelValues("failure").Inc()
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarvalue_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solarvalue_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solarvalue_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for pickup by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
