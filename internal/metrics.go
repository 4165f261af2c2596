package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus metrics.
type Metrics struct {
	LinksProcessed  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	BatchSize       prometheus.Histogram
	ActiveTransfers prometheus.Gauge
}

// NewMetrics registers pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LinksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terarelay",
			Name:      "links_processed_total",
			Help:      "Links processed, by outcome",
		}, []string{"outcome"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "terarelay",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage pipeline duration",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terarelay",
			Name:      "batch_size",
			Help:      "Eligible links per batch",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),

		ActiveTransfers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "terarelay",
			Name:      "active_transfers",
			Help:      "Transfers currently in flight",
		}),
	}
}

// ObserveOutcome records a finished link. Safe on a nil receiver so callers
// can run without metrics wired.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.LinksProcessed.WithLabelValues(outcome).Inc()
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveBatch records the eligible-link count of a batch.
func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

// TransferStarted marks a transfer in flight.
func (m *Metrics) TransferStarted() {
	if m == nil {
		return
	}
	m.ActiveTransfers.Inc()
}

// TransferFinished marks a transfer as done.
func (m *Metrics) TransferFinished() {
	if m == nil {
		return
	}
	m.ActiveTransfers.Dec()
}
