package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	appinventory "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	tenantA int64 = 1
	tenantB int64 = 2
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ctxFor(tenantID int64) context.Context {
	return appinventory.WithTenant(context.Background(), tenantID)
}

func testPolicy() appinventory.RetryPolicy {
	return appinventory.RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

type fixture struct {
	ledger   *appinventory.LedgerUseCase
	queries  *appinventory.StockQueryUseCase
	recorder *fakeRecorder
}

func newFixture(repo repository.StockRepository) fixture {
	guard := appinventory.NewTenantGuard(logger.Nop())
	rec := &fakeRecorder{ops: map[string]int{}}
	return fixture{
		ledger:   appinventory.NewLedgerUseCase(repo, appinventory.NewKeyLocker(), guard, testPolicy(), rec, logger.Nop()),
		queries:  appinventory.NewStockQueryUseCase(repo, guard, nil),
		recorder: rec,
	}
}

func newMemoryFixture() (fixture, *memory.StockRepo) {
	repo := memory.NewStockRepository()
	return newFixture(repo), repo
}

// fakeRecorder guarda lo observado por el motor.
type fakeRecorder struct {
	mu            sync.Mutex
	ops           map[string]int
	retries       int
	compensations []bool
}

func (r *fakeRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op+":"+outcome]++
}

func (r *fakeRecorder) ObserveRetry(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

func (r *fakeRecorder) ObserveCompensation(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append(r.compensations, ok)
}

// faultyRepo falla las escrituras sobre una bodega concreta, como una caída del store.
type faultyRepo struct {
	*memory.StockRepo
	failWarehouse int64
}

func (f *faultyRepo) fail(key entity.StockKey) error {
	if key.WarehouseID == f.failWarehouse {
		return fmt.Errorf("%w: escritura simulada fallida", domain.ErrStoreUnavailable)
	}
	return nil
}

func (f *faultyRepo) Insert(ctx context.Context, rec *entity.StockRecord) error {
	if err := f.fail(rec.Key()); err != nil {
		return err
	}
	return f.StockRepo.Insert(ctx, rec)
}

func (f *faultyRepo) CompareAndSwap(ctx context.Context, rec *entity.StockRecord, expected int64) error {
	if err := f.fail(rec.Key()); err != nil {
		return err
	}
	return f.StockRepo.CompareAndSwap(ctx, rec, expected)
}

// conflictingRepo simula otra instancia que siempre escribe primero.
type conflictingRepo struct {
	*memory.StockRepo
}

func (c *conflictingRepo) CompareAndSwap(context.Context, *entity.StockRecord, int64) error {
	return domain.ErrVersionConflict
}

// foreignRepo devuelve registros de otro tenant en las lecturas por llave.
type foreignRepo struct {
	*memory.StockRepo
	owner int64
}

func (f *foreignRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	rec, err := f.StockRepo.Get(ctx, entity.StockKey{TenantID: f.owner, ProductID: key.ProductID, WarehouseID: key.WarehouseID})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
