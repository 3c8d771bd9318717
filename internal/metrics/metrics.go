package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics counts batch outcomes on a private registry so that each run (and
// each test) starts from zero.
type Metrics struct {
	registry *prometheus.Registry

	Documents     *prometheus.CounterVec
	KeysFiltered  prometheus.Counter
	BatchDuration prometheus.Histogram
}

// New creates a Metrics with all collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfesynth_documents_total",
			Help: "Total number of access keys processed, by outcome",
		}, []string{"outcome"}),
		KeysFiltered: factory.NewCounter(prometheus.CounterOpts{
			Name: "nfesynth_keys_filtered_total",
			Help: "Total number of input lines dropped for not having the access key shape",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nfesynth_batch_duration_seconds",
			Help:    "Wall time of a batch run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// IncrementSuccess counts one key persisted successfully.
func (m *Metrics) IncrementSuccess() {
	m.Documents.WithLabelValues(OutcomeSuccess).Inc()
}

// IncrementError counts one key that failed inside its failure boundary.
func (m *Metrics) IncrementError() {
	m.Documents.WithLabelValues(OutcomeError).Inc()
}

// AddFiltered counts n input lines dropped by the shape filter.
func (m *Metrics) AddFiltered(n int) {
	m.KeysFiltered.Add(float64(n))
}

// ObserveBatch records the wall time of a finished run.
func (m *Metrics) ObserveBatch(d time.Duration) {
	m.BatchDuration.Observe(d.Seconds())
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
