package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestParseRows_ConEncabezadoYComaDecimal(t *testing.T) {
	rows, err := parseRows(strings.NewReader("tenant_id,product_id,warehouse_id,quantity\n1,7,3,\"50,25\"\n2, 7, 4, 10\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "50.25", rows[0].quantity.StringFixed(2))
	assert.Equal(t, int64(2), rows[1].tenantID)
	assert.Equal(t, 3, rows[1].line)
}

func TestParseRows_IDInvalidoCortaLaCarga(t *testing.T) {
	_, err := parseRows(strings.NewReader("1,7,3,5\n1,x,3,5\n"))
	assert.ErrorContains(t, err, "línea 2")
}

func TestParseRows_Latin1(t *testing.T) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, charmap.ISO8859_1.NewEncoder())
	_, err := w.Write([]byte("tenant_id,product_id,warehouse_id,quantity\n1,7,3,1\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows, err := parseRows(transform.NewReader(&buf, charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSeed_AplicaSetQuantityPorTenant(t *testing.T) {
	repo := memory.NewStockRepository()
	ledger := inventory.NewLedgerUseCase(repo, inventory.NewKeyLocker(), inventory.NewTenantGuard(logger.Nop()),
		inventory.DefaultRetryPolicy(), nil, logger.Nop())
	rows, err := parseRows(strings.NewReader("1,7,3,50\n2,7,3,5\n1,7,3,40\n1,8,3,-1\n"))
	require.NoError(t, err)

	applied, failed := seed(context.Background(), ledger, rows, logger.Nop())
	assert.Equal(t, 3, applied)
	assert.Equal(t, 1, failed, "la cantidad negativa se rechaza")

	rec, err := ledger.Get(inventory.WithTenant(context.Background(), 1), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, "40.00", rec.DisplayQuantity(), "la última fila gana")

	rec, err = ledger.Get(inventory.WithTenant(context.Background(), 2), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, "5.00", rec.DisplayQuantity())
}

func TestRequirePersistentStore_MemoriaSeRechaza(t *testing.T) {
	err := requirePersistentStore(&config.Config{Ledger: config.LedgerConfig{Store: config.StoreMemory}})
	assert.ErrorContains(t, err, "postgres")

	assert.NoError(t, requirePersistentStore(&config.Config{Ledger: config.LedgerConfig{Store: config.StorePostgres}}))
}
