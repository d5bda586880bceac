// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"finledger/internal/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger collects per-operation counters and latencies. A nil *Ledger is valid
// and records nothing.
type Ledger struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewLedger registers the ledger collectors on a fresh registry.
func NewLedger() *Ledger {
	reg := prometheus.NewRegistry()
	m := &Ledger{
		registry: reg,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finledger",
				Name:      "operations_total",
				Help:      "Ledger operations by operation and result.",
			},
			[]string{"operation", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "finledger",
				Name:      "operation_duration_seconds",
				Help:      "Ledger operation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(
		m.operations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished operation.
func (m *Ledger) Observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Result(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Ledger) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Ledger) Registry() *prometheus.Registry {
	return m.registry
}

// Result maps an error to a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch util.KindOf(err) {
	case util.KindInsufficientFunds:
		return "insufficient_funds"
	case util.KindUserNotFound, util.KindStatementNotFound, util.KindNotFound:
		return "not_found"
	case util.KindInvalidInput, util.KindInvalidReceiver:
		return "invalid"
	case util.KindDuplicateEntry:
		return "duplicate"
	case util.KindIncorrectCredentials, util.KindInvalidToken:
		return "unauthorized"
	default:
		return "error"
	}
}
