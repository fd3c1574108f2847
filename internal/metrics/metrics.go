// Package metrics records statement timings and table sizes of a load run
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"dwhload/pkg/errors"
)

const namespace = "dwhload"

// Status label values
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusDryRun = "dry_run"
)

// Recorder owns a private registry so a run's metrics can be pushed as one
// group without the process collectors.
type Recorder struct {
	registry *prometheus.Registry

	duration  *prometheus.HistogramVec
	total     *prometheus.CounterVec
	tableRows *prometheus.GaugeVec
	phases    *prometheus.SummaryVec
}

// NewRecorder creates a recorder with fresh collectors
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "statement_duration_seconds",
			Help:      "Wall time of one catalog statement",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300, 900, 1800},
		}, []string{"phase", "statement"}),
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Catalog statements by phase and outcome",
		}, []string{"phase", "status"}),
		tableRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Row count of each table after the run",
		}, []string{"table"}),
		phases: factory.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time of one phase",
			Objectives: map[float64]float64{
				0.50: 0.05,
				0.90: 0.01,
				0.99: 0.001,
			},
		}, []string{"phase"}),
	}
}

// ObserveStatement records one executed statement
func (r *Recorder) ObserveStatement(phase, statement, status string, d time.Duration) {
	r.total.WithLabelValues(phase, status).Inc()
	if status != StatusDryRun {
		r.duration.WithLabelValues(phase, statement).Observe(d.Seconds())
	}
}

// ObservePhase records the duration of one phase
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phases.WithLabelValues(phase).Observe(d.Seconds())
}

// SetTableRows records the row count of table
func (r *Recorder) SetTableRows(table string, rows int64) {
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

// Registry exposes the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Counter returns the statements_total child for tests and reports
func (r *Recorder) Counter(phase, status string) prometheus.Counter {
	return r.total.WithLabelValues(phase, status)
}

// TableRows returns the table_rows child for table
func (r *Recorder) TableRows(table string) prometheus.Gauge {
	return r.tableRows.WithLabelValues(table)
}

// Push sends the registry to a Pushgateway grouped by run id
func (r *Recorder) Push(url, job, runID string) error {
	if job == "" {
		job = namespace
	}
	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		Push()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to push metrics").
			WithContext("pushgateway_url", url).
			WithSeverity(errors.SeverityWarning)
	}
	return nil
}
