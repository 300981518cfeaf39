// Package metrics holds the Prometheus collectors of the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sebasr/avt-ingest/internal/models"
)

const namespace = "avt_ingest"

// Session outcomes
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics groups every collector the pipeline records to
type Metrics struct {
	sessions  *prometheus.CounterVec
	samples   *prometheus.CounterVec
	discarded *prometheus.CounterVec
	duration  prometheus.Histogram
	queue     prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests that only read values want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Session candidates processed, by outcome.",
		}, []string{"outcome"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_inserted_total",
			Help:      "Samples newly written to storage, by stream.",
		}, []string{"stream"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_discarded_total",
			Help:      "Input rows rejected by the parsers, by stream and reason.",
		}, []string{"stream", "reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_duration_seconds",
			Help:      "Time spent ingesting one session candidate.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Ingestion jobs waiting for the worker.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.sessions, m.samples, m.discarded, m.duration, m.queue)
	}
	return m
}

// Session counts one candidate outcome
func (m *Metrics) Session(outcome string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(outcome).Inc()
}

// SamplesInserted adds to the inserted counter of a stream
func (m *Metrics) SamplesInserted(stream models.StreamType, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.samples.WithLabelValues(string(stream)).Add(float64(n))
}

// Discarded records every reason count of a parse
func (m *Metrics) Discarded(stream models.StreamType, counts map[models.ReasonCode]int) {
	if m == nil {
		return
	}
	for reason, n := range counts {
		m.discarded.WithLabelValues(string(stream), string(reason)).Add(float64(n))
	}
}

// ObserveDuration records how long one candidate took
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

// SetQueueLength reports the current number of queued jobs
func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.queue.Set(float64(n))
}
