package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del ledger de stock (protegido).
// El tenant viaja en el UserContext que deja AuthMiddleware.
type InventoryHandler struct {
	ledger  *inventory.LedgerUseCase
	queries *inventory.StockQueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, queries *inventory.StockQueryUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, queries: queries}
}

// Get godoc
// @Summary      Stock de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    path  int  true  "Producto"
// @Param        warehouse_id  path  int  true  "Bodega"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{product_id}/{warehouse_id} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	productID, warehouseID, err := keyParams(c)
	if err != nil {
		return writeError(c, err)
	}
	rec, err := h.ledger.Get(c.UserContext(), productID, warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToStockResponse(rec))
}

// Create godoc
// @Summary      Registrar stock inicial
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockRequest  true  "product_id, warehouse_id, quantity"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusCreated, h.ledger.Create)
}

// Increase godoc
// @Summary      Incrementar stock (crea el registro si no existe)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockRequest  true  "product_id, warehouse_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/increase [post]
func (h *InventoryHandler) Increase(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, h.ledger.Increase)
}

// Decrease godoc
// @Summary      Decrementar stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockRequest  true  "product_id, warehouse_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/decrease [post]
func (h *InventoryHandler) Decrease(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, h.ledger.Decrease)
}

// Set godoc
// @Summary      Fijar la cantidad absoluta
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockRequest  true  "product_id, warehouse_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Router       /api/inventory [put]
func (h *InventoryHandler) Set(c *fiber.Ctx) error {
	return h.mutate(c, fiber.StatusOK, h.ledger.SetQuantity)
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	qty, err := domaininv.RequireQuantity(in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	pair, err := h.ledger.Transfer(c.UserContext(), in.ProductID, in.FromWarehouseID, in.ToWarehouseID, qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TransferResponse{From: dto.ToStockResponse(pair[0]), To: dto.ToStockResponse(pair[1])})
}

// Delete godoc
// @Summary      Eliminar un registro de stock
// @Tags         inventory
// @Security     Bearer
// @Param        product_id    path  int  true  "Producto"
// @Param        warehouse_id  path  int  true  "Bodega"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{product_id}/{warehouse_id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	productID, warehouseID, err := keyParams(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.ledger.Delete(c.UserContext(), productID, warehouseID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Availability godoc
// @Summary      ¿Hay al menos quantity disponible?
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  int     true  "Producto"
// @Param        warehouse_id  query  int     true  "Bodega"
// @Param        quantity      query  string  true  "Cantidad requerida"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/inventory/availability [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	productID, err := int64Query(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	warehouseID, err := int64Query(c, "warehouse_id")
	if err != nil {
		return writeError(c, err)
	}
	required, err := decimalQuery(c, "quantity")
	if err != nil {
		return writeError(c, err)
	}
	ok, err := h.queries.CheckAvailability(c.UserContext(), productID, warehouseID, required)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Required:    required.StringFixed(2),
		Available:   ok,
	})
}

// List godoc
// @Summary      Stock del tenant, paginado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo 100"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	p, err := pageQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.ListByTenant(c.UserContext(), p)
	return writePage(c, page, err)
}

// ListByProduct godoc
// @Summary      Stock de un producto en todas las bodegas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  int  true  "Producto"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/inventory/products/{product_id} [get]
func (h *InventoryHandler) ListByProduct(c *fiber.Ctx) error {
	productID, err := int64Param(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.queries.ListByProduct(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToStockResponses(list))
}

// TotalByProduct godoc
// @Summary      Cantidad total de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  int  true  "Producto"
// @Success      200  {object}  dto.TotalResponse
// @Router       /api/inventory/products/{product_id}/total [get]
func (h *InventoryHandler) TotalByProduct(c *fiber.Ctx) error {
	productID, err := int64Param(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.queries.TotalByProduct(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TotalResponse{ProductID: productID, Total: total.StringFixed(2)})
}

// ListByWarehouse godoc
// @Summary      Stock de una bodega, paginado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path   int  true   "Bodega"
// @Param        limit         query  int  false  "Máximo 100"
// @Param        offset        query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/warehouses/{warehouse_id} [get]
func (h *InventoryHandler) ListByWarehouse(c *fiber.Ctx) error {
	warehouseID, err := int64Param(c, "warehouse_id")
	if err != nil {
		return writeError(c, err)
	}
	p, err := pageQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.ListByWarehouse(c.UserContext(), warehouseID, p)
	return writePage(c, page, err)
}

// LowStock godoc
// @Summary      Registros con cantidad menor al umbral
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  string  true  "Umbral"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	threshold, err := decimalQuery(c, "threshold")
	if err != nil {
		return writeError(c, err)
	}
	p, err := pageQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.LowStock(c.UserContext(), threshold, p)
	return writePage(c, page, err)
}

// HighStock godoc
// @Summary      Registros con cantidad mayor al umbral
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  string  true  "Umbral"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/high-stock [get]
func (h *InventoryHandler) HighStock(c *fiber.Ctx) error {
	threshold, err := decimalQuery(c, "threshold")
	if err != nil {
		return writeError(c, err)
	}
	p, err := pageQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.HighStock(c.UserContext(), threshold, p)
	return writePage(c, page, err)
}

// ZeroStock godoc
// @Summary      Registros en cero
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/zero-stock [get]
func (h *InventoryHandler) ZeroStock(c *fiber.Ctx) error {
	p, err := pageQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.queries.ZeroStock(c.UserContext(), p)
	return writePage(c, page, err)
}

// UniqueProducts godoc
// @Summary      Productos distintos con stock registrado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  int  false  "Bodega; vacío = todo el tenant"
// @Success      200  {object}  dto.CountResponse
// @Router       /api/inventory/unique-products [get]
func (h *InventoryHandler) UniqueProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if c.Query("warehouse_id") == "" {
		n, err := h.queries.UniqueProductCount(ctx)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.CountResponse{Count: n})
	}
	warehouseID, err := int64Query(c, "warehouse_id")
	if err != nil {
		return writeError(c, err)
	}
	n, err := h.queries.UniqueProductCountByWarehouse(ctx, warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{WarehouseID: warehouseID, Count: n})
}

// Value godoc
// @Summary      Valor del stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  int  false  "Bodega; vacío = todo el tenant"
// @Success      200  {object}  dto.ValueResponse
// @Router       /api/inventory/value [get]
func (h *InventoryHandler) Value(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if c.Query("warehouse_id") == "" {
		v, err := h.queries.TotalValueByTenant(ctx)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.ValueResponse{Value: v.StringFixed(2)})
	}
	warehouseID, err := int64Query(c, "warehouse_id")
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.queries.TotalValue(ctx, warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ValueResponse{WarehouseID: warehouseID, Value: v.StringFixed(2)})
}

type mutation func(ctx context.Context, productID, warehouseID int64, quantity decimal.Decimal) (*entity.StockRecord, error)

func (h *InventoryHandler) mutate(c *fiber.Ctx, status int, op mutation) error {
	var in dto.StockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	qty, err := domaininv.RequireQuantity(in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	rec, err := op(c.UserContext(), in.ProductID, in.WarehouseID, qty)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(dto.ToStockResponse(rec))
}

// writeError traduce los errores del ledger a HTTP. Un registro de otro tenant responde
// exactamente igual que uno inexistente.
func writeError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente",
			Available: insufficient.Available.StringFixed(2),
			Requested: insufficient.Requested.StringFixed(2),
		})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser >= 0 con hasta dos decimales"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: domain.ErrRecordNotFound.Error()})
	case errors.Is(err, domain.ErrDuplicateRecord):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: domain.ErrDuplicateRecord.Error()})
	case errors.Is(err, domain.ErrContention):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CONTENTION", Message: domain.ErrContention.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "almacenamiento no disponible, intente más tarde"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func writePage(c *fiber.Ctx, page *inventory.StockPage, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockListResponse{
		Items: dto.ToStockResponses(page.Items),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: page.Total},
	})
}

func keyParams(c *fiber.Ctx) (int64, int64, error) {
	productID, err := int64Param(c, "product_id")
	if err != nil {
		return 0, 0, err
	}
	warehouseID, err := int64Param(c, "warehouse_id")
	if err != nil {
		return 0, 0, err
	}
	return productID, warehouseID, nil
}

func int64Param(c *fiber.Ctx, name string) (int64, error) {
	return parseID(c.Params(name))
}

func int64Query(c *fiber.Ctx, name string) (int64, error) {
	return parseID(c.Query(name))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return id, nil
}

func decimalQuery(c *fiber.Ctx, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Query(name))
	if err != nil {
		return decimal.Zero, domain.ErrInvalidQuantity
	}
	return d, nil
}

// pageQuery limit/offset no numéricos son error de validación, no la página por defecto.
func pageQuery(c *fiber.Ctx) (repository.Page, error) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		return repository.Page{}, domain.ErrInvalidInput
	}
	return repository.Page{Limit: p.Limit, Offset: p.Offset}, nil
}
