// Package metrics records per-run counters and writes them in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics for one process. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	rowsInserted  *prometheus.CounterVec
	runs          *prometheus.CounterVec
	statusChecks  prometheus.Counter
	pollWait      prometheus.Gauge
	stageDuration *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blastdb_rows_inserted_total",
				Help: "Rows inserted into the results database",
			},
			[]string{"table"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blastdb_runs_total",
				Help: "Pipeline runs by outcome and failing stage",
			},
			[]string{"outcome", "stage"},
		),
		statusChecks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blastdb_status_checks_total",
				Help: "SearchInfo requests sent while polling",
			},
		),
		pollWait: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blastdb_poll_wait_seconds",
				Help: "Time spent waiting for the last search to become ready",
			},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blastdb_stage_duration_seconds",
				Help: "Wall time of each stage in the last run",
			},
			[]string{"stage"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blastdb_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
	}
	r.registry.MustRegister(
		r.rowsInserted,
		r.runs,
		r.statusChecks,
		r.pollWait,
		r.stageDuration,
		r.lastSuccess,
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RowsInserted adds the row counts of one persisted report.
func (r *Recorder) RowsInserted(queries, hits, hsps int) {
	if r == nil {
		return
	}
	r.rowsInserted.WithLabelValues("queries").Add(float64(queries))
	r.rowsInserted.WithLabelValues("hits").Add(float64(hits))
	r.rowsInserted.WithLabelValues("hsps").Add(float64(hsps))
}

// Polled records the outcome of a finished wait.
func (r *Recorder) Polled(checks int, waited time.Duration) {
	if r == nil {
		return
	}
	r.statusChecks.Add(float64(checks))
	r.pollWait.Set(waited.Seconds())
}

// StageDone records how long a stage took.
func (r *Recorder) StageDone(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// RunSucceeded counts a successful run and stamps its completion time.
func (r *Recorder) RunSucceeded(at time.Time) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues("success", "").Inc()
	r.lastSuccess.Set(float64(at.Unix()))
}

// RunFailed counts a run that stopped at stage.
func (r *Recorder) RunFailed(stage string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues("failure", stage).Inc()
}

// WriteTextfile writes all metrics to path. The file is replaced
// atomically so a concurrent scrape never sees a partial write.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
