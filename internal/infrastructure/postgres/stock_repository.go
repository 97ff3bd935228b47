package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `tenant_id, product_id, warehouse_id, quantity, version, created_at, last_updated`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// La exclusión entre instancias la da la columna version: toda escritura es un compare-and-set.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el registro de la llave.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + `
		FROM stock_records WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3`
	rec, err := scanRecord(r.q.QueryRow(ctx, query, key.TenantID, key.ProductID, key.WarehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, storeErr("get stock", err)
	}
	return rec, nil
}

func (r *StockRepo) Exists(ctx context.Context, key entity.StockKey) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM stock_records WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, key.TenantID, key.ProductID, key.WarehouseID).Scan(&ok); err != nil {
		return false, storeErr("exists stock", err)
	}
	return ok, nil
}

// Insert crea el registro solo si la llave no existe (ON CONFLICT DO NOTHING).
func (r *StockRepo) Insert(ctx context.Context, rec *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (tenant_id, product_id, warehouse_id, quantity, version, created_at, last_updated)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
		ON CONFLICT (tenant_id, product_id, warehouse_id) DO NOTHING
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query,
		rec.TenantID, rec.ProductID, rec.WarehouseID, rec.Quantity, rec.CreatedAt, rec.LastUpdated,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return domain.ErrDuplicateRecord
		}
		return writeErr("insert stock", err)
	}
	rec.Version = version
	return nil
}

// CompareAndSwap escribe quantity y last_updated si la versión almacenada es expectedVersion.
func (r *StockRepo) CompareAndSwap(ctx context.Context, rec *entity.StockRecord, expectedVersion int64) error {
	query := `
		UPDATE stock_records
		SET quantity = $4, last_updated = $5, version = version + 1
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND version = $6
		RETURNING version, created_at`
	err := r.q.QueryRow(ctx, query,
		rec.TenantID, rec.ProductID, rec.WarehouseID, rec.Quantity, rec.LastUpdated, expectedVersion,
	).Scan(&rec.Version, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missOrConflict(ctx, rec.Key())
	}
	if err != nil {
		return writeErr("update stock", err)
	}
	return nil
}

// Delete borra el registro si la versión almacenada es expectedVersion.
func (r *StockRepo) Delete(ctx context.Context, key entity.StockKey, expectedVersion int64) error {
	query := `DELETE FROM stock_records
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND version = $4`
	tag, err := r.q.Exec(ctx, query, key.TenantID, key.ProductID, key.WarehouseID, expectedVersion)
	if err != nil {
		return storeErr("delete stock", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, key)
	}
	return nil
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records
		WHERE product_id = $1 ORDER BY tenant_id, product_id, warehouse_id`
	return r.list(ctx, "list stock by product", query, productID)
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID int64) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records
		WHERE warehouse_id = $1 ORDER BY tenant_id, product_id, warehouse_id`
	return r.list(ctx, "list stock by warehouse", query, warehouseID)
}

// Find página filtrada más el total. Limit 0 devuelve todas las filas.
func (r *StockRepo) Find(ctx context.Context, filter repository.StockFilter, page repository.Page) ([]*entity.StockRecord, int, error) {
	where, args := whereClause(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count stock", err)
	}

	query := `SELECT ` + stockColumns + ` FROM stock_records` + where +
		` ORDER BY tenant_id, product_id, warehouse_id`
	if page.Limit > 0 {
		args = append(args, page.Limit, page.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	} else if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	list, err := r.list(ctx, "find stock", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *StockRepo) CountDistinctProducts(ctx context.Context, filter repository.StockFilter) (int64, error) {
	where, args := whereClause(filter)
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(DISTINCT product_id) FROM stock_records`+where, args...).Scan(&n); err != nil {
		return 0, storeErr("count distinct products", err)
	}
	return n, nil
}

// missOrConflict distingue, tras un CAS sin filas afectadas, si la fila desapareció o cambió de versión.
func (r *StockRepo) missOrConflict(ctx context.Context, key entity.StockKey) error {
	ok, err := r.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRecordNotFound
	}
	return domain.ErrVersionConflict
}

func (r *StockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return list, nil
}

func scanRecord(row pgx.Row) (*entity.StockRecord, error) {
	var rec entity.StockRecord
	if err := row.Scan(
		&rec.TenantID, &rec.ProductID, &rec.WarehouseID, &rec.Quantity,
		&rec.Version, &rec.CreatedAt, &rec.LastUpdated,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

// whereClause arma el WHERE del filtro con placeholders numerados.
func whereClause(f repository.StockFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.TenantID != 0 {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.ProductID != 0 {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != 0 {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.Below != nil {
		add("quantity < $%d", *f.Below)
	}
	if f.Above != nil {
		add("quantity > $%d", *f.Above)
	}
	if f.Equal != nil {
		add("quantity = $%d", *f.Equal)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
