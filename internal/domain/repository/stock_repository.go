package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Page paginación por limit/offset.
type Page struct {
	Limit  int
	Offset int
}

// StockFilter filtro de las vistas por tenant. Los campos cero no filtran.
type StockFilter struct {
	TenantID    int64
	ProductID   int64
	WarehouseID int64
	Below       *decimal.Decimal // quantity < Below
	Above       *decimal.Decimal // quantity > Above
	Equal       *decimal.Decimal // quantity = Equal
}

// Match evalúa el filtro sobre un registro (usado por el store en memoria).
func (f StockFilter) Match(r *entity.StockRecord) bool {
	if f.TenantID != 0 && r.TenantID != f.TenantID {
		return false
	}
	if f.ProductID != 0 && r.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != 0 && r.WarehouseID != f.WarehouseID {
		return false
	}
	if f.Below != nil && !r.Quantity.LessThan(*f.Below) {
		return false
	}
	if f.Above != nil && !r.Quantity.GreaterThan(*f.Above) {
		return false
	}
	if f.Equal != nil && !r.Quantity.Equal(*f.Equal) {
		return false
	}
	return true
}

// StockRepository puerto del ledger: registros de stock por (tenant, producto, bodega).
//
// Get devuelve domain.ErrRecordNotFound cuando no existe; nunca (nil, nil).
// Insert falla con domain.ErrDuplicateRecord si la llave ya existe, también ante inserts concurrentes.
// CompareAndSwap y Delete solo aplican si la versión almacenada es expectedVersion;
// si no, domain.ErrVersionConflict. En éxito Insert y CompareAndSwap dejan en rec.Version
// la versión almacenada. Fallas de infraestructura envuelven domain.ErrStoreUnavailable.
type StockRepository interface {
	Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error)
	Exists(ctx context.Context, key entity.StockKey) (bool, error)
	Insert(ctx context.Context, rec *entity.StockRecord) error
	CompareAndSwap(ctx context.Context, rec *entity.StockRecord, expectedVersion int64) error
	Delete(ctx context.Context, key entity.StockKey, expectedVersion int64) error

	// Búsquedas secundarias no únicas, sin filtrar por tenant.
	ListByProduct(ctx context.Context, productID int64) ([]*entity.StockRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID int64) ([]*entity.StockRecord, error)

	// Find devuelve la página pedida y el total de registros que cumplen el filtro.
	Find(ctx context.Context, filter StockFilter, page Page) ([]*entity.StockRecord, int, error)
	CountDistinctProducts(ctx context.Context, filter StockFilter) (int64, error)
}
