package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuantityScale decimales con los que se almacena y muestra una cantidad.
const QuantityScale = 2

// MaxQuantity mayor cantidad representable en la columna NUMERIC(18,2) de stock_records.
var MaxQuantity = decimal.RequireFromString("9999999999999999.99")

// StockKey identifica un registro de stock: (tenant, producto, bodega).
type StockKey struct {
	TenantID    int64
	ProductID   int64
	WarehouseID int64
}

func (k StockKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.TenantID, k.ProductID, k.WarehouseID)
}

// Less orden global de llaves (tenant, producto, bodega); define el orden de adquisición de locks.
func (k StockKey) Less(o StockKey) bool {
	if k.TenantID != o.TenantID {
		return k.TenantID < o.TenantID
	}
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.WarehouseID < o.WarehouseID
}

// StockRecord representa la cantidad de un producto en una bodega para un tenant.
// Version crece en cada escritura y sirve para el compare-and-set del store.
type StockRecord struct {
	TenantID    int64
	ProductID   int64
	WarehouseID int64
	Quantity    decimal.Decimal
	Version     int64
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Key devuelve la llave del registro.
func (r *StockRecord) Key() StockKey {
	return StockKey{TenantID: r.TenantID, ProductID: r.ProductID, WarehouseID: r.WarehouseID}
}

// Clone copia el registro; los stores nunca comparten punteros con el caller.
func (r *StockRecord) Clone() *StockRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// DisplayQuantity cantidad redondeada (half-up) a QuantityScale para presentación.
func (r *StockRecord) DisplayQuantity() string {
	return r.Quantity.StringFixed(QuantityScale)
}
