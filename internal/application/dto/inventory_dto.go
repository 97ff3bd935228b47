package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockRequest body de POST /api/inventory, POST /increase, POST /decrease y PUT /.
// El tenant nunca viaja en el body: sale del token.
type StockRequest struct {
	ProductID   int64            `json:"product_id"`
	WarehouseID int64            `json:"warehouse_id"`
	Quantity    *decimal.Decimal `json:"quantity"`
}

// TransferRequest body de POST /api/inventory/transfer.
type TransferRequest struct {
	ProductID       int64            `json:"product_id"`
	FromWarehouseID int64            `json:"from_warehouse_id"`
	ToWarehouseID   int64            `json:"to_warehouse_id"`
	Quantity        *decimal.Decimal `json:"quantity"`
}

// StockResponse registro del ledger con la cantidad a dos decimales.
type StockResponse struct {
	TenantID    int64     `json:"tenant_id"`
	ProductID   int64     `json:"product_id"`
	WarehouseID int64     `json:"warehouse_id"`
	Quantity    string    `json:"quantity"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// TransferResponse estado de origen y destino tras el traslado.
type TransferResponse struct {
	From StockResponse `json:"from"`
	To   StockResponse `json:"to"`
}

// StockListResponse listado paginado.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AvailabilityResponse respuesta de GET /availability.
type AvailabilityResponse struct {
	ProductID   int64  `json:"product_id"`
	WarehouseID int64  `json:"warehouse_id"`
	Required    string `json:"required"`
	Available   bool   `json:"available"`
}

// TotalResponse cantidad total de un producto en las bodegas del tenant.
type TotalResponse struct {
	ProductID int64  `json:"product_id"`
	Total     string `json:"total"`
}

// CountResponse conteo de productos distintos.
type CountResponse struct {
	WarehouseID int64 `json:"warehouse_id,omitempty"`
	Count       int64 `json:"count"`
}

// ValueResponse valor del stock.
type ValueResponse struct {
	WarehouseID int64  `json:"warehouse_id,omitempty"`
	Value       string `json:"value"`
}

// ToStockResponse convierte un registro del ledger.
func ToStockResponse(r *entity.StockRecord) StockResponse {
	return StockResponse{
		TenantID:    r.TenantID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.DisplayQuantity(),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		LastUpdated: r.LastUpdated,
	}
}

// ToStockResponses convierte una lista; nunca devuelve nil.
func ToStockResponses(list []*entity.StockRecord) []StockResponse {
	out := make([]StockResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToStockResponse(r))
	}
	return out
}
