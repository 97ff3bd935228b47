package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func newRecord(tenant, product, warehouse int64, qty string) *entity.StockRecord {
	now := time.Now()
	return &entity.StockRecord{
		TenantID:    tenant,
		ProductID:   product,
		WarehouseID: warehouse,
		Quantity:    decimal.RequireFromString(qty),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func TestStockRepo_GetInexistenteDevuelveNotFound(t *testing.T) {
	repo := memory.NewStockRepository()
	rec, err := repo.Get(context.Background(), entity.StockKey{TenantID: 1, ProductID: 7, WarehouseID: 3})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestStockRepo_InsertDuplicadoFalla(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()

	rec := newRecord(1, 7, 3, "50.00")
	require.NoError(t, repo.Insert(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	err := repo.Insert(ctx, newRecord(1, 7, 3, "10.00"))
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

	got, err := repo.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "50.00", got.DisplayQuantity(), "el insert duplicado no sobrescribe")
}

func TestStockRepo_InsertConcurrenteSoloUnoGana(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()

	const n = 32
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Insert(ctx, newRecord(1, 7, 3, "1.00")); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestStockRepo_CompareAndSwapRespetaVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()
	rec := newRecord(1, 7, 3, "50.00")
	require.NoError(t, repo.Insert(ctx, rec))

	upd := rec.Clone()
	upd.Quantity = decimal.RequireFromString("75.00")
	require.NoError(t, repo.CompareAndSwap(ctx, upd, 1))
	assert.Equal(t, int64(2), upd.Version)

	stale := rec.Clone()
	stale.Quantity = decimal.RequireFromString("1.00")
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, stale, 1), domain.ErrVersionConflict)

	got, err := repo.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "75.00", got.DisplayQuantity())
	assert.Equal(t, rec.CreatedAt, got.CreatedAt, "CreatedAt no cambia en actualizaciones")
}

func TestStockRepo_DeleteConVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()
	rec := newRecord(1, 7, 3, "5.00")
	require.NoError(t, repo.Insert(ctx, rec))

	assert.ErrorIs(t, repo.Delete(ctx, rec.Key(), 9), domain.ErrVersionConflict)
	require.NoError(t, repo.Delete(ctx, rec.Key(), 1))
	assert.ErrorIs(t, repo.Delete(ctx, rec.Key(), 1), domain.ErrRecordNotFound)

	list, err := repo.ListByProduct(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, list, "el índice por producto se limpia al borrar")
}

func TestStockRepo_BusquedasSecundariasIncluyenTodosLosTenants(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()
	require.NoError(t, repo.Insert(ctx, newRecord(1, 7, 3, "1.00")))
	require.NoError(t, repo.Insert(ctx, newRecord(1, 7, 4, "2.00")))
	require.NoError(t, repo.Insert(ctx, newRecord(2, 7, 3, "3.00")))
	require.NoError(t, repo.Insert(ctx, newRecord(1, 8, 3, "4.00")))

	byProduct, err := repo.ListByProduct(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, byProduct, 3)

	byWarehouse, err := repo.ListByWarehouse(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, byWarehouse, 3)
}

func TestStockRepo_FindFiltraYPagina(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()
	for i, q := range []string{"0.00", "3.00", "10.00", "20.00", "0.00"} {
		require.NoError(t, repo.Insert(ctx, newRecord(1, int64(i+1), 3, q)))
	}
	require.NoError(t, repo.Insert(ctx, newRecord(2, 1, 3, "0.00")))

	five := decimal.NewFromInt(5)
	low, total, err := repo.Find(ctx, repository.StockFilter{TenantID: 1, Below: &five}, repository.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, low, 2)
	assert.Equal(t, int64(1), low[0].ProductID)
	assert.Equal(t, int64(2), low[1].ProductID)

	rest, total, err := repo.Find(ctx, repository.StockFilter{TenantID: 1, Below: &five}, repository.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(5), rest[0].ProductID)

	zero := decimal.Zero
	zeros, total, err := repo.Find(ctx, repository.StockFilter{TenantID: 1, Equal: &zero}, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, zeros, 2)

	count, err := repo.CountDistinctProducts(ctx, repository.StockFilter{TenantID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestStockRepo_GetDevuelveCopia(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockRepository()
	rec := newRecord(1, 7, 3, "5.00")
	require.NoError(t, repo.Insert(ctx, rec))

	got, err := repo.Get(ctx, rec.Key())
	require.NoError(t, err)
	got.Quantity = decimal.NewFromInt(-1)

	again, err := repo.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, "5.00", again.DisplayQuantity(), "mutar la copia no afecta el store")
}
