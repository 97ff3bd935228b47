// seed_stock carga saldos iniciales en el ledger desde un CSV con columnas
// tenant_id,product_id,warehouse_id,quantity (la primera fila puede ser encabezado).
// Cada fila se aplica como SetQuantity, así que volver a correrlo es idempotente.
// Requiere LEDGER_STORE=postgres.
//
// Uso: go run ./cmd/seed_stock [-latin1] saldos.csv
// Con -latin1 el archivo se decodifica como ISO-8859-1 (exportaciones de hojas de cálculo).
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type row struct {
	line        int
	tenantID    int64
	productID   int64
	warehouseID int64
	quantity    decimal.Decimal
}

func main() {
	latin1 := flag.Bool("latin1", false, "decodificar el CSV como ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_stock [-latin1] saldos.csv")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *latin1); err != nil {
		fmt.Fprintf(os.Stderr, "seed_stock: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, latin1 bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuración: %w", err)
	}
	if err := requirePersistentStore(cfg); err != nil {
		return err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	var in io.Reader = f
	if latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	rows, err := parseRows(in)
	if err != nil {
		return fmt.Errorf("leer CSV: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migración de stock_records: %w", err)
	}

	ledger := inventory.NewLedgerUseCase(postgres.NewStockRepository(pool), inventory.NewKeyLocker(),
		inventory.NewTenantGuard(log), inventory.DefaultRetryPolicy(), nil, log)
	applied, failed := seed(ctx, ledger, rows, log)
	fmt.Printf("Cargadas %d filas, %d con error\n", applied, failed)
	if failed > 0 {
		return fmt.Errorf("%d filas rechazadas", failed)
	}
	return nil
}

// requirePersistentStore el store en memoria muere con el proceso: cargar ahí no deja nada.
func requirePersistentStore(cfg *config.Config) error {
	if cfg.Ledger.Store != config.StorePostgres {
		return fmt.Errorf("LEDGER_STORE=%q: la carga requiere %q", cfg.Ledger.Store, config.StorePostgres)
	}
	return nil
}

// parseRows lee el CSV completo; una fila mal formada corta la carga antes de escribir nada.
func parseRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var rows []row
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "tenant_id") {
			continue
		}
		parsed, err := parseRow(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, parsed)
	}
}

func parseRow(line int, rec []string) (row, error) {
	ids := make([]int64, 3)
	for i := range ids {
		id, err := strconv.ParseInt(strings.TrimSpace(rec[i]), 10, 64)
		if err != nil || id <= 0 {
			return row{}, fmt.Errorf("línea %d: id inválido %q", line, rec[i])
		}
		ids[i] = id
	}
	// Acepta coma decimal de exportaciones en español.
	qty, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(rec[3]), ",", ".", 1))
	if err != nil {
		return row{}, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[3])
	}
	return row{line: line, tenantID: ids[0], productID: ids[1], warehouseID: ids[2], quantity: qty}, nil
}

// seed aplica cada fila con el tenant de la fila en el contexto.
func seed(ctx context.Context, ledger *inventory.LedgerUseCase, rows []row, log *logger.Logger) (applied, failed int) {
	for _, r := range rows {
		tctx := inventory.WithTenant(ctx, r.tenantID)
		if _, err := ledger.SetQuantity(tctx, r.productID, r.warehouseID, r.quantity); err != nil {
			log.Error().Err(err).Int("line", r.line).Int64("tenant_id", r.tenantID).Msg("fila rechazada")
			failed++
			continue
		}
		applied++
	}
	return applied, failed
}
