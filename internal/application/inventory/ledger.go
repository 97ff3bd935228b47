package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LedgerUseCase motor de operaciones de stock: alta, incremento, decremento, fijación,
// traslado y baja de registros, siempre dentro del tenant autenticado.
//
// Cada intento toma el lock de la(s) llave(s), lee, valida y escribe con compare-and-set.
// Los conflictos de versión (otra instancia escribiendo en el mismo store) se reintentan
// con backoff exponencial acotado.
type LedgerUseCase struct {
	repo     repository.StockRepository
	locker   *KeyLocker
	guard    *TenantGuard
	policy   RetryPolicy
	recorder Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el motor. recorder y log pueden ser nil.
func NewLedgerUseCase(
	repo repository.StockRepository,
	locker *KeyLocker,
	guard *TenantGuard,
	policy RetryPolicy,
	recorder Recorder,
	log *logger.Logger,
) *LedgerUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		repo:     repo,
		locker:   locker,
		guard:    guard,
		policy:   policy,
		recorder: recorder,
		log:      log.Named("ledger"),
		now:      time.Now,
	}
}

// Get devuelve el registro de la llave o ErrRecordNotFound.
func (uc *LedgerUseCase) Get(ctx context.Context, productID, warehouseID int64) (*entity.StockRecord, error) {
	tenantID, err := uc.guard.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := inventory.ValidateIDs(productID, warehouseID); err != nil {
		return nil, err
	}
	rec, err := uc.repo.Get(ctx, entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}
	if err := uc.guard.Check(tenantID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create registra stock inicial; falla con ErrDuplicateRecord si la llave ya existe.
func (uc *LedgerUseCase) Create(ctx context.Context, productID, warehouseID int64, quantity decimal.Decimal) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.run(ctx, OpCreate, func(tenantID int64) error {
		if err := validate(productID, quantity, warehouseID); err != nil {
			return err
		}
		key := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
		uow, err := uc.locker.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer uow.Release()
		out, err = uc.create(ctx, uow, key, quantity)
		return err
	})
	return out, err
}

// Increase suma delta; si la llave no existe la crea con delta.
func (uc *LedgerUseCase) Increase(ctx context.Context, productID, warehouseID int64, delta decimal.Decimal) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.run(ctx, OpIncrease, func(tenantID int64) error {
		if err := validate(productID, delta, warehouseID); err != nil {
			return err
		}
		key := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
		uow, err := uc.locker.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer uow.Release()
		out, err = uc.increase(ctx, uow, key, delta)
		return err
	})
	return out, err
}

// Decrease resta delta. Falla con ErrRecordNotFound si no existe y con InsufficientStockError
// si el resultado quedaría bajo cero; en ambos casos el stock no cambia.
func (uc *LedgerUseCase) Decrease(ctx context.Context, productID, warehouseID int64, delta decimal.Decimal) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.run(ctx, OpDecrease, func(tenantID int64) error {
		if err := validate(productID, delta, warehouseID); err != nil {
			return err
		}
		key := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
		uow, err := uc.locker.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer uow.Release()
		out, err = uc.decrease(ctx, uow, key, delta)
		return err
	})
	return out, err
}

// SetQuantity fija la cantidad absoluta; crea el registro si no existe.
func (uc *LedgerUseCase) SetQuantity(ctx context.Context, productID, warehouseID int64, quantity decimal.Decimal) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.run(ctx, OpSet, func(tenantID int64) error {
		if err := validate(productID, quantity, warehouseID); err != nil {
			return err
		}
		key := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
		uow, err := uc.locker.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer uow.Release()
		out, err = uc.set(ctx, uow, key, quantity)
		return err
	})
	return out, err
}

// Delete elimina el registro (borrado físico); ErrRecordNotFound si no existe.
func (uc *LedgerUseCase) Delete(ctx context.Context, productID, warehouseID int64) error {
	return uc.run(ctx, OpDelete, func(tenantID int64) error {
		if err := inventory.ValidateIDs(productID, warehouseID); err != nil {
			return err
		}
		key := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: warehouseID}
		uow, err := uc.locker.Acquire(ctx, key)
		if err != nil {
			return err
		}
		defer uow.Release()
		rec, err := uc.load(ctx, uow, key)
		if err != nil {
			return err
		}
		return uc.repo.Delete(ctx, key, rec.Version)
	})
}

// Transfer mueve quantity de una bodega a otra como una sola unidad: verifica disponibilidad
// en origen, descuenta y suma en destino. Si el abono en destino falla, el descuento se revierte
// antes de devolver el error. Devuelve [origen, destino].
func (uc *LedgerUseCase) Transfer(ctx context.Context, productID, fromWarehouseID, toWarehouseID int64, quantity decimal.Decimal) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	transferID := uuid.NewString()
	err := uc.run(ctx, OpTransfer, func(tenantID int64) error {
		if err := validate(productID, quantity, fromWarehouseID, toWarehouseID); err != nil {
			return err
		}
		if fromWarehouseID == toWarehouseID {
			return domain.ErrInvalidInput
		}
		from := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: fromWarehouseID}
		to := entity.StockKey{TenantID: tenantID, ProductID: productID, WarehouseID: toWarehouseID}

		uow, err := uc.locker.Acquire(ctx, from, to)
		if err != nil {
			return err
		}
		defer uow.Release()

		src, err := uc.load(ctx, uow, from)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.NewInsufficientStock(decimal.Zero, quantity)
		}
		if err != nil {
			return err
		}
		if src.Quantity.LessThan(quantity) {
			return domain.NewInsufficientStock(src.Quantity, quantity)
		}

		fromRec, err := uc.apply(ctx, src, src.Quantity.Sub(quantity))
		if err != nil {
			return err
		}
		toRec, err := uc.increase(ctx, uow, to, quantity)
		if err != nil {
			if cerr := uc.compensate(ctx, uow, from, quantity, transferID); cerr != nil {
				// Sin compensación no se reintenta: repetir el traslado descontaría dos veces.
				return fmt.Errorf("%w: traslado %s sin compensar: %v; %v",
					domain.ErrStoreUnavailable, transferID, err, cerr)
			}
			return err
		}
		out = []*entity.StockRecord{fromRec, toRec}
		return nil
	})
	if err == nil {
		uc.log.Debug().
			Str("transfer_id", transferID).
			Int64("product_id", productID).
			Int64("from", fromWarehouseID).
			Int64("to", toWarehouseID).
			Str("quantity", quantity.StringFixed(entity.QuantityScale)).
			Msg("traslado aplicado")
	}
	return out, err
}

// run resuelve el tenant, ejecuta el intento con reintentos y registra el resultado.
func (uc *LedgerUseCase) run(ctx context.Context, op string, attempt func(tenantID int64) error) error {
	start := uc.now()
	tenantID, err := uc.guard.Resolve(ctx)
	if err == nil {
		err = uc.retry(ctx, op, func() error { return attempt(tenantID) })
	}
	uc.recorder.ObserveOperation(op, Outcome(err), time.Since(start))
	if errors.Is(err, domain.ErrStoreUnavailable) {
		uc.log.Error().Err(err).Str("op", op).Int64("tenant_id", tenantID).Msg("store no disponible")
	}
	return err
}

// load lee el registro de una llave cubierta por la unidad de trabajo y aplica el guard.
func (uc *LedgerUseCase) load(ctx context.Context, uow *UnitOfWork, key entity.StockKey) (*entity.StockRecord, error) {
	if !uow.Holds(key) {
		return nil, fmt.Errorf("unidad de trabajo sin lock para %s", key)
	}
	rec, err := uc.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := uc.guard.Check(key.TenantID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (uc *LedgerUseCase) create(ctx context.Context, uow *UnitOfWork, key entity.StockKey, quantity decimal.Decimal) (*entity.StockRecord, error) {
	if !uow.Holds(key) {
		return nil, fmt.Errorf("unidad de trabajo sin lock para %s", key)
	}
	now := uc.now()
	rec := &entity.StockRecord{
		TenantID:    key.TenantID,
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Quantity:    quantity,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := uc.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// createOrRetry crea el registro en los caminos increase/set. Si otra instancia lo insertó
// entre la lectura y el insert, el intento se repite como actualización.
func (uc *LedgerUseCase) createOrRetry(ctx context.Context, uow *UnitOfWork, key entity.StockKey, quantity decimal.Decimal) (*entity.StockRecord, error) {
	rec, err := uc.create(ctx, uow, key, quantity)
	if errors.Is(err, domain.ErrDuplicateRecord) {
		return nil, domain.ErrVersionConflict
	}
	return rec, err
}

func (uc *LedgerUseCase) increase(ctx context.Context, uow *UnitOfWork, key entity.StockKey, delta decimal.Decimal) (*entity.StockRecord, error) {
	rec, err := uc.load(ctx, uow, key)
	if isAbsent(err) {
		return uc.createOrRetry(ctx, uow, key, delta)
	}
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, rec, rec.Quantity.Add(delta))
}

func (uc *LedgerUseCase) decrease(ctx context.Context, uow *UnitOfWork, key entity.StockKey, delta decimal.Decimal) (*entity.StockRecord, error) {
	rec, err := uc.load(ctx, uow, key)
	if err != nil {
		return nil, err
	}
	next, err := inventory.Subtract(rec.Quantity, delta)
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, rec, next)
}

func (uc *LedgerUseCase) set(ctx context.Context, uow *UnitOfWork, key entity.StockKey, quantity decimal.Decimal) (*entity.StockRecord, error) {
	rec, err := uc.load(ctx, uow, key)
	if isAbsent(err) {
		return uc.createOrRetry(ctx, uow, key, quantity)
	}
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, rec, quantity)
}

// apply escribe la nueva cantidad con compare-and-set sobre la versión leída.
func (uc *LedgerUseCase) apply(ctx context.Context, rec *entity.StockRecord, quantity decimal.Decimal) (*entity.StockRecord, error) {
	if quantity.IsNegative() {
		return nil, domain.NewInsufficientStock(rec.Quantity, rec.Quantity.Sub(quantity))
	}
	// Una suma puede exceder la precisión almacenable aunque cada sumando sea válido.
	if quantity.GreaterThan(entity.MaxQuantity) {
		return nil, domain.ErrInvalidQuantity
	}
	next := rec.Clone()
	next.Quantity = quantity
	next.LastUpdated = uc.now()
	if err := uc.repo.CompareAndSwap(ctx, next, rec.Version); err != nil {
		return nil, err
	}
	return next, nil
}

// compensate devuelve quantity al origen de un traslado fallido. No respeta la cancelación del
// caller: el stock descontado debe volver. El ciclo lectura-suma-CAS está acotado.
func (uc *LedgerUseCase) compensate(ctx context.Context, uow *UnitOfWork, from entity.StockKey, quantity decimal.Decimal, transferID string) error {
	ctx = context.WithoutCancel(ctx)
	var err error
	for i := uint64(0); i <= uc.policy.MaxRetries; i++ {
		_, err = uc.increase(ctx, uow, from, quantity)
		if !errors.Is(err, domain.ErrVersionConflict) {
			break
		}
	}
	uc.recorder.ObserveCompensation(err == nil)
	if err != nil {
		uc.log.Error().Err(err).
			Str("transfer_id", transferID).
			Str("key", from.String()).
			Str("quantity", quantity.StringFixed(entity.QuantityScale)).
			Msg("no se pudo compensar el traslado")
		return fmt.Errorf("compensar origen %s: %w", from, err)
	}
	uc.log.Warn().
		Str("transfer_id", transferID).
		Str("key", from.String()).
		Msg("traslado revertido en origen")
	return nil
}

func validate(productID int64, quantity decimal.Decimal, warehouseIDs ...int64) error {
	if err := inventory.ValidateIDs(productID, warehouseIDs...); err != nil {
		return err
	}
	return inventory.ValidateQuantity(quantity)
}

// isAbsent no existe el registro; un registro de otro tenant no cuenta como ausente.
func isAbsent(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound) && !errors.Is(err, domain.ErrTenantMismatch)
}

// Outcome clasifica un error del motor para métricas.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, domain.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateRecord):
		return "duplicate"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrContention):
		return "contention"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
