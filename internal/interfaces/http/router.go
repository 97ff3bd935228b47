package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.LedgerUseCase
	Queries   *inventory.StockQueryUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	readers := RequireRole(RoleInventoryManager, RoleManager, RoleAdmin, RoleSeller)
	writers := RequireRole(RoleInventoryManager, RoleManager, RoleAdmin)
	admins := RequireRole(RoleAdmin)

	inv := protected.Group("/inventory")
	h := NewInventoryHandler(deps.Ledger, deps.Queries)

	// Las rutas fijas van antes de /:product_id/:warehouse_id.
	inv.Get("/", readers, h.List)
	inv.Get("/availability", readers, h.Availability)
	inv.Get("/low-stock", readers, h.LowStock)
	inv.Get("/high-stock", readers, h.HighStock)
	inv.Get("/zero-stock", readers, h.ZeroStock)
	inv.Get("/unique-products", readers, h.UniqueProducts)
	inv.Get("/value", readers, h.Value)
	inv.Get("/products/:product_id/total", readers, h.TotalByProduct)
	inv.Get("/products/:product_id", readers, h.ListByProduct)
	inv.Get("/warehouses/:warehouse_id", readers, h.ListByWarehouse)
	inv.Get("/:product_id/:warehouse_id", readers, h.Get)

	inv.Post("/", writers, h.Create)
	inv.Post("/increase", writers, h.Increase)
	inv.Post("/decrease", writers, h.Decrease)
	inv.Post("/transfer", writers, h.Transfer)
	inv.Put("/", writers, h.Set)
	inv.Delete("/:product_id/:warehouse_id", admins, h.Delete)
}
