package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/AdamBeresnev/knockout/internal/bracket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records the outcome and latency of engine operations.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knockout_operations_total",
			Help: "Engine operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "knockout_operation_duration_seconds",
			Help:    "Engine operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one call of operation that started at start and returned err.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome names the error family of err for labelling.
func Outcome(err error) string {
	var engineErr *bracket.Error
	switch {
	case err == nil:
		return "ok"
	case bracket.IsNotFound(err):
		return "not_found"
	case bracket.IsForbidden(err):
		return "forbidden"
	case bracket.IsConflict(err):
		return "conflict"
	case bracket.IsStateMismatch(err):
		return "state_mismatch"
	case bracket.IsValidation(err):
		return "invalid"
	case errors.As(err, &engineErr):
		return "rejected"
	default:
		return "error"
	}
}
