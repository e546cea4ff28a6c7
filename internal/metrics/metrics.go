// Package metrics records Prometheus metrics for validation runs.
//
// A Recorder owns its own registry rather than the global default, so a
// command-line run can export exactly its own series to a node-exporter
// textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the engine's Metrics hook.
type Recorder struct {
	reg *prometheus.Registry

	// jobsTotal counts finished jobs by validation and outcome
	jobsTotal *prometheus.CounterVec

	// jobsSkipped counts pairs skipped because of a prior result
	jobsSkipped *prometheus.CounterVec

	// jobDuration tracks validation runtime in seconds
	jobDuration *prometheus.HistogramVec

	// lastRun is the Unix time of the most recent recorded job
	lastRun prometheus.Gauge
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gauntlet_jobs_total",
				Help: "Total number of validation jobs run",
			},
			[]string{"validation", "outcome"},
		),
		jobsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gauntlet_jobs_skipped_total",
				Help: "Total number of validation jobs skipped due to a prior result",
			},
			[]string{"validation"},
		),
		jobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gauntlet_job_duration_seconds",
				Help:    "Validation job duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
			[]string{"validation"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gauntlet_last_job_timestamp_seconds",
				Help: "Unix time the most recent validation job finished",
			},
		),
	}
}

// JobSkipped records a pair left out of a run.
func (r *Recorder) JobSkipped(validationID string) {
	r.jobsSkipped.WithLabelValues(validationID).Inc()
}

// JobFinished records one executed pair.
func (r *Recorder) JobFinished(validationID, modelID, outcome string, runtime time.Duration) {
	r.jobsTotal.WithLabelValues(validationID, outcome).Inc()
	r.jobDuration.WithLabelValues(validationID).Observe(runtime.Seconds())
	r.lastRun.SetToCurrentTime()
}

// Registry returns the underlying registry, for gathering in tests or
// serving over HTTP.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// WriteTextfile writes every series in the text exposition format to path,
// atomically, for the node exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
