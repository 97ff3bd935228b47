package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrInvalidQuantity = errors.New("cantidad inválida")
	ErrDuplicateRecord = errors.New("ya existe un registro de stock para el producto y la bodega")
	ErrRecordNotFound  = errors.New("registro de stock no encontrado")
	// ErrTenantMismatch envuelve ErrRecordNotFound: para el caller es indistinguible de "no existe".
	ErrTenantMismatch    = fmt.Errorf("%w: pertenece a otro tenant", ErrRecordNotFound)
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrContention        = errors.New("contención al actualizar el stock, reintente")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")

	// ErrVersionConflict lo devuelve el store cuando falla el compare-and-set; no sale del motor.
	ErrVersionConflict = errors.New("conflicto de versión")
	// ErrStoreUnavailable marca fallas operativas del almacenamiento (no reglas de negocio).
	ErrStoreUnavailable = errors.New("almacenamiento de stock no disponible")
)

// InsufficientStockError detalle de un decremento o traslado rechazado por falta de stock.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s, requerido %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStock construye el error con las cantidades disponible y solicitada.
func NewInsufficientStock(available, requested decimal.Decimal) error {
	return &InsufficientStockError{Available: available, Requested: requested}
}
