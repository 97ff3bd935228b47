package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestTenantGuard_ResolveExigeTenantPositivo(t *testing.T) {
	g := appinventory.NewTenantGuard(logger.Nop())

	_, err := g.Resolve(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = g.Resolve(appinventory.WithTenant(context.Background(), 0))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	id, err := g.Resolve(ctxFor(tenantA))
	require.NoError(t, err)
	assert.Equal(t, tenantA, id)
}

func TestTenantGuard_CheckRechazaRegistroAjeno(t *testing.T) {
	g := appinventory.NewTenantGuard(nil)
	own := &entity.StockRecord{TenantID: tenantA, ProductID: 7, WarehouseID: 3}
	foreign := &entity.StockRecord{TenantID: tenantB, ProductID: 7, WarehouseID: 3}

	assert.NoError(t, g.Check(tenantA, own))

	err := g.Check(tenantA, foreign)
	assert.ErrorIs(t, err, domain.ErrTenantMismatch)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.ErrorIs(t, g.Check(tenantA, nil), domain.ErrTenantMismatch)
}

func TestTenantGuard_FilterConservaSoloLosPropios(t *testing.T) {
	g := appinventory.NewTenantGuard(logger.Nop())
	recs := []*entity.StockRecord{
		{TenantID: tenantA, ProductID: 7, WarehouseID: 3},
		{TenantID: tenantB, ProductID: 7, WarehouseID: 3},
		nil,
		{TenantID: tenantA, ProductID: 7, WarehouseID: 4},
	}

	out := g.Filter(tenantA, recs)
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, tenantA, r.TenantID)
	}
	assert.Empty(t, g.Filter(99, recs))
}
