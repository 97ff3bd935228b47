package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.Valuator = (*ProductCostRepo)(nil)

// ProductCostRepo costo unitario por producto, mantenido fuera del ledger (compras, costeo).
type ProductCostRepo struct {
	q Querier
}

// NewProductCostRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductCostRepository(q Querier) *ProductCostRepo {
	return &ProductCostRepo{q: q}
}

// UnitCost devuelve el costo del producto para el tenant; cero si no tiene costo registrado.
func (r *ProductCostRepo) UnitCost(ctx context.Context, tenantID, productID int64) (decimal.Decimal, error) {
	query := `SELECT unit_cost FROM product_costs WHERE tenant_id = $1 AND product_id = $2`
	var cost decimal.Decimal
	err := r.q.QueryRow(ctx, query, tenantID, productID).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, storeErr("get product cost", err)
	}
	return cost, nil
}
