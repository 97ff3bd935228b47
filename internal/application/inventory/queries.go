package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// StockPage página de registros con el total que cumple el filtro.
type StockPage struct {
	Items  []*entity.StockRecord
	Total  int
	Limit  int
	Offset int
}

// StockQueryUseCase consultas de solo lectura sobre el ledger. Cada llamada lee una sola
// instantánea del store; no hay consistencia entre llamadas. Toda lectura lleva el tenant
// del caller en el filtro del store.
type StockQueryUseCase struct {
	repo     repository.StockRepository
	guard    *TenantGuard
	valuator Valuator
}

// NewStockQueryUseCase construye las consultas. valuator puede ser nil.
func NewStockQueryUseCase(repo repository.StockRepository, guard *TenantGuard, valuator Valuator) *StockQueryUseCase {
	return &StockQueryUseCase{repo: repo, guard: guard, valuator: valuator}
}

// CheckAvailability true si existe el registro y quantity >= required. Un registro inexistente
// (o de otro tenant) responde false sin error.
func (uc *StockQueryUseCase) CheckAvailability(ctx context.Context, productID, warehouseID int64, required decimal.Decimal) (bool, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if err := validate(productID, required, warehouseID); err != nil {
		return false, err
	}
	rec, err := uc.repo.Get(ctx, entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID})
	if errors.Is(err, domain.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := uc.guard.Check(tenantID, rec); err != nil {
		return false, nil
	}
	return rec.Quantity.GreaterThanOrEqual(required), nil
}

// TotalByProduct suma del producto en todas las bodegas del tenant; cero si no hay registros.
func (uc *StockQueryUseCase) TotalByProduct(ctx context.Context, productID int64) (decimal.Decimal, error) {
	list, err := uc.ListByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range list {
		total = total.Add(r.Quantity)
	}
	return total, nil
}

// ListByProduct registros del producto en todas las bodegas del tenant.
func (uc *StockQueryUseCase) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockRecord, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := inventory.ValidateIDs(productID); err != nil {
		return nil, err
	}
	list, _, err := uc.repo.Find(ctx, repository.StockFilter{TenantID: tenantID, ProductID: productID}, repository.Page{})
	if err != nil {
		return nil, err
	}
	return uc.guard.Filter(tenantID, list), nil
}

// ListByWarehouse registros de una bodega del tenant, paginados.
func (uc *StockQueryUseCase) ListByWarehouse(ctx context.Context, warehouseID int64, page repository.Page) (*StockPage, error) {
	if warehouseID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.find(ctx, repository.StockFilter{WarehouseID: warehouseID}, page)
}

// ListByTenant todos los registros del tenant, paginados.
func (uc *StockQueryUseCase) ListByTenant(ctx context.Context, page repository.Page) (*StockPage, error) {
	return uc.find(ctx, repository.StockFilter{}, page)
}

// LowStock registros con quantity < threshold.
func (uc *StockQueryUseCase) LowStock(ctx context.Context, threshold decimal.Decimal, page repository.Page) (*StockPage, error) {
	if err := inventory.ValidateQuantity(threshold); err != nil {
		return nil, err
	}
	return uc.find(ctx, repository.StockFilter{Below: &threshold}, page)
}

// HighStock registros con quantity > threshold.
func (uc *StockQueryUseCase) HighStock(ctx context.Context, threshold decimal.Decimal, page repository.Page) (*StockPage, error) {
	if err := inventory.ValidateQuantity(threshold); err != nil {
		return nil, err
	}
	return uc.find(ctx, repository.StockFilter{Above: &threshold}, page)
}

// ZeroStock registros con quantity = 0.
func (uc *StockQueryUseCase) ZeroStock(ctx context.Context, page repository.Page) (*StockPage, error) {
	zero := decimal.Zero
	return uc.find(ctx, repository.StockFilter{Equal: &zero}, page)
}

// UniqueProductCount productos distintos con registro en el tenant.
func (uc *StockQueryUseCase) UniqueProductCount(ctx context.Context) (int64, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	return uc.repo.CountDistinctProducts(ctx, repository.StockFilter{TenantID: tenantID})
}

// UniqueProductCountByWarehouse productos distintos en una bodega del tenant.
func (uc *StockQueryUseCase) UniqueProductCountByWarehouse(ctx context.Context, warehouseID int64) (int64, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	if warehouseID <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return uc.repo.CountDistinctProducts(ctx, repository.StockFilter{TenantID: tenantID, WarehouseID: warehouseID})
}

// TotalValue valor del stock de una bodega (Σ cantidad × costo unitario del Valuator).
func (uc *StockQueryUseCase) TotalValue(ctx context.Context, warehouseID int64) (decimal.Decimal, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if warehouseID <= 0 {
		return decimal.Zero, domain.ErrInvalidInput
	}
	list, _, err := uc.repo.Find(ctx, repository.StockFilter{TenantID: tenantID, WarehouseID: warehouseID}, repository.Page{})
	if err != nil {
		return decimal.Zero, err
	}
	return uc.value(ctx, tenantID, uc.guard.Filter(tenantID, list))
}

// TotalValueByTenant valor del stock de todas las bodegas del tenant.
func (uc *StockQueryUseCase) TotalValueByTenant(ctx context.Context) (decimal.Decimal, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	list, _, err := uc.repo.Find(ctx, repository.StockFilter{TenantID: tenantID}, repository.Page{})
	if err != nil {
		return decimal.Zero, err
	}
	return uc.value(ctx, tenantID, list)
}

func (uc *StockQueryUseCase) value(ctx context.Context, tenantID int64, list []*entity.StockRecord) (decimal.Decimal, error) {
	total := decimal.Zero
	if uc.valuator == nil {
		return total, nil
	}
	costs := make(map[int64]decimal.Decimal)
	for _, r := range list {
		cost, ok := costs[r.ProductID]
		if !ok {
			c, err := uc.valuator.UnitCost(ctx, tenantID, r.ProductID)
			if err != nil {
				return decimal.Zero, err
			}
			cost = c
			costs[r.ProductID] = cost
		}
		total = total.Add(r.Quantity.Mul(cost))
	}
	return total.Round(entity.QuantityScale), nil
}

// find aplica el tenant del caller al filtro; el filtro nunca trae el tenant desde afuera.
func (uc *StockQueryUseCase) find(ctx context.Context, filter repository.StockFilter, page repository.Page) (*StockPage, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	filter.TenantID = tenantID
	page = normalizePage(page)
	items, total, err := uc.repo.Find(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &StockPage{
		Items:  uc.guard.Filter(tenantID, items),
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

func normalizePage(p repository.Page) repository.Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
