package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

const namespace = "stock_ledger"

var _ inventory.Recorder = (*LedgerMetrics)(nil)

// LedgerMetrics métricas Prometheus del motor de stock.
type LedgerMetrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewLedgerMetrics registra las métricas en un registry propio, junto con los collectors de
// proceso y runtime de Go.
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	m := &LedgerMetrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operaciones del ledger por tipo y resultado.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duración de las operaciones del ledger, reintentos incluidos.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Conflictos de versión en el store que provocaron un reintento.",
		}, []string{"op"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_compensations_total",
			Help:      "Reversiones del origen en traslados fallidos.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.operations, m.duration, m.retries, m.compensations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *LedgerMetrics) ObserveOperation(op, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveRetry(op string) {
	m.retries.WithLabelValues(op).Inc()
}

func (m *LedgerMetrics) ObserveCompensation(succeeded bool) {
	result := "failed"
	if succeeded {
		result = "ok"
	}
	m.compensations.WithLabelValues(result).Inc()
}

// Registry expone el registry para tests y handlers adicionales.
func (m *LedgerMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler HTTP de /metrics sobre el registry propio.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
