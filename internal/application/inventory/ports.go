package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Nombres de operación usados en métricas y logs.
const (
	OpCreate   = "create"
	OpIncrease = "increase"
	OpDecrease = "decrease"
	OpSet      = "set"
	OpTransfer = "transfer"
	OpDelete   = "delete"
)

// Recorder recibe el resultado de cada operación del motor. Lo implementa el adaptador de Prometheus.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
	ObserveRetry(op string)
	ObserveCompensation(succeeded bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) ObserveRetry(string)                            {}
func (nopRecorder) ObserveCompensation(bool)                       {}

// Valuator entrega el costo unitario de un producto para valorizar el stock.
// La fijación de precios es externa al ledger; sin Valuator el valor total es cero.
type Valuator interface {
	UnitCost(ctx context.Context, tenantID, productID int64) (decimal.Decimal, error)
}
