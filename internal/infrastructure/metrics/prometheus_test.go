package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetrics_CuentaOperacionesPorResultado(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveOperation("decrease", "ok", 2*time.Millisecond)
	m.ObserveOperation("decrease", "ok", time.Millisecond)
	m.ObserveOperation("decrease", "insufficient_stock", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("decrease", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("decrease", "insufficient_stock")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestLedgerMetrics_ReintentosYCompensaciones(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveRetry("transfer")
	m.ObserveRetry("transfer")
	m.ObserveCompensation(true)
	m.ObserveCompensation(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retries.WithLabelValues("transfer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("failed")))
}

func TestLedgerMetrics_HandlerExponeMetricas(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveOperation("create", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `stock_ledger_operations_total{op="create",outcome="ok"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
