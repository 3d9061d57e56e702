// Package metrics exposes Prometheus instruments for uploads and pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "obd2_sampler"

// Pipeline outcomes.
const (
	OutcomeReady  = "ready"
	OutcomeFailed = "failed"
)

// Metrics holds the service instruments. A nil *Metrics is a no-op.
type Metrics struct {
	UploadRejections *prometheus.CounterVec
	UploadedBytes    prometheus.Counter
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	SampledRows      prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UploadRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejections_total",
			Help:      "Uploads rejected by validation, by reason code.",
		}, []string{"reason"}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes of accepted CSV uploads.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs, by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		SampledRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sampled_rows",
			Help:      "Rows left after sampling, per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held by the manager.",
		}),
	}

	reg.MustRegister(
		m.UploadRejections,
		m.UploadedBytes,
		m.PipelineRuns,
		m.PipelineDuration,
		m.SampledRows,
		m.ActiveSessions,
	)
	return m
}

// RejectUpload counts a validation rejection.
func (m *Metrics) RejectUpload(reason string) {
	if m == nil {
		return
	}
	m.UploadRejections.WithLabelValues(reason).Inc()
}

// AcceptUpload counts accepted bytes.
func (m *Metrics) AcceptUpload(size int64) {
	if m == nil {
		return
	}
	m.UploadedBytes.Add(float64(size))
}

// ObserveRun records one finished pipeline run.
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration, sampledRows int) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.PipelineDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeReady {
		m.SampledRows.Observe(float64(sampledRows))
	}
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
