package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación en memoria del ledger, con índices por producto y por bodega.
// Cada lectura trabaja sobre una instantánea tomada bajo RLock.
type StockRepo struct {
	mu          sync.RWMutex
	records     map[entity.StockKey]*entity.StockRecord
	byProduct   map[int64]map[entity.StockKey]struct{}
	byWarehouse map[int64]map[entity.StockKey]struct{}
}

// NewStockRepository construye el store vacío.
func NewStockRepository() *StockRepo {
	return &StockRepo{
		records:     make(map[entity.StockKey]*entity.StockRecord),
		byProduct:   make(map[int64]map[entity.StockKey]struct{}),
		byWarehouse: make(map[int64]map[entity.StockKey]struct{}),
	}
}

func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (r *StockRepo) Exists(ctx context.Context, key entity.StockKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[key]
	return ok, nil
}

func (r *StockRepo) Insert(ctx context.Context, rec *entity.StockRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := rec.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[key]; ok {
		return domain.ErrDuplicateRecord
	}
	rec.Version = 1
	r.records[key] = rec.Clone()
	index(r.byProduct, key.ProductID, key)
	index(r.byWarehouse, key.WarehouseID, key)
	return nil
}

func (r *StockRepo) CompareAndSwap(ctx context.Context, rec *entity.StockRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := rec.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[key]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	next := rec.Clone()
	next.CreatedAt = cur.CreatedAt
	next.Version = expectedVersion + 1
	r.records[key] = next
	rec.Version = next.Version
	rec.CreatedAt = cur.CreatedAt
	return nil
}

func (r *StockRepo) Delete(ctx context.Context, key entity.StockKey, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[key]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	delete(r.records, key)
	unindex(r.byProduct, key.ProductID, key)
	unindex(r.byWarehouse, key.WarehouseID, key)
	return nil
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockRecord, error) {
	return r.listIndexed(ctx, r.byProduct, productID)
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID int64) ([]*entity.StockRecord, error) {
	return r.listIndexed(ctx, r.byWarehouse, warehouseID)
}

func (r *StockRepo) Find(ctx context.Context, filter repository.StockFilter, page repository.Page) ([]*entity.StockRecord, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]*entity.StockRecord, 0)
	for _, rec := range r.records {
		if filter.Match(rec) {
			matched = append(matched, rec.Clone())
		}
	}
	r.mu.RUnlock()

	sortByKey(matched)
	total := len(matched)
	if page.Offset >= total {
		return []*entity.StockRecord{}, total, nil
	}
	end := total
	if page.Limit > 0 && page.Offset+page.Limit < total {
		end = page.Offset + page.Limit
	}
	return matched[page.Offset:end], total, nil
}

func (r *StockRepo) CountDistinctProducts(ctx context.Context, filter repository.StockFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[int64]struct{})
	for _, rec := range r.records {
		if filter.Match(rec) {
			seen[rec.ProductID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (r *StockRepo) listIndexed(ctx context.Context, idx map[int64]map[entity.StockKey]struct{}, id int64) ([]*entity.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	list := make([]*entity.StockRecord, 0, len(idx[id]))
	for key := range idx[id] {
		list = append(list, r.records[key].Clone())
	}
	r.mu.RUnlock()
	sortByKey(list)
	return list, nil
}

func index(idx map[int64]map[entity.StockKey]struct{}, id int64, key entity.StockKey) {
	set, ok := idx[id]
	if !ok {
		set = make(map[entity.StockKey]struct{})
		idx[id] = set
	}
	set[key] = struct{}{}
}

func unindex(idx map[int64]map[entity.StockKey]struct{}, id int64, key entity.StockKey) {
	set := idx[id]
	delete(set, key)
	if len(set) == 0 {
		delete(idx, id)
	}
}

func sortByKey(list []*entity.StockRecord) {
	sort.Slice(list, func(i, j int) bool { return list[i].Key().Less(list[j].Key()) })
}
