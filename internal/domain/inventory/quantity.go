package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ValidateQuantity acepta cero o positivos hasta entity.MaxQuantity con a lo sumo
// entity.QuantityScale decimales.
func ValidateQuantity(q decimal.Decimal) error {
	if q.IsNegative() || q.GreaterThan(entity.MaxQuantity) {
		return domain.ErrInvalidQuantity
	}
	if !q.Equal(q.Truncate(entity.QuantityScale)) {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// RequireQuantity convierte una cantidad opcional (JSON null/ausente) en una válida.
func RequireQuantity(q *decimal.Decimal) (decimal.Decimal, error) {
	if q == nil {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	if err := ValidateQuantity(*q); err != nil {
		return decimal.Zero, err
	}
	return *q, nil
}

// ValidateIDs producto y bodega son identificadores opacos positivos.
func ValidateIDs(productID int64, warehouseIDs ...int64) error {
	if productID <= 0 {
		return domain.ErrInvalidInput
	}
	for _, w := range warehouseIDs {
		if w <= 0 {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// Subtract resta delta de available; falla si el resultado queda estrictamente bajo cero.
// Bajar exactamente a cero está permitido.
func Subtract(available, delta decimal.Decimal) (decimal.Decimal, error) {
	next := available.Sub(delta)
	if next.LessThan(decimal.Zero) {
		return available, domain.NewInsufficientStock(available, delta)
	}
	return next, nil
}
