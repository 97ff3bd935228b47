package inventory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestValidateQuantity(t *testing.T) {
	casos := []struct {
		nombre string
		valor  string
		err    error
	}{
		{"cero es válido", "0", nil},
		{"positivo con dos decimales", "50.25", nil},
		{"ceros a la derecha no cuentan como escala", "1.2500", nil},
		{"negativo", "-0.01", domain.ErrInvalidQuantity},
		{"tres decimales", "1.005", domain.ErrInvalidQuantity},
		{"máximo de la columna", "9999999999999999.99", nil},
		{"sobre el máximo de la columna", "10000000000000000", domain.ErrInvalidQuantity},
		{"muy grande", "1e17", domain.ErrInvalidQuantity},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			err := inventory.ValidateQuantity(decimal.RequireFromString(c.valor))
			if c.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestRequireQuantity_NilEsInvalida(t *testing.T) {
	_, err := inventory.RequireQuantity(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	q := decimal.RequireFromString("10.00")
	got, err := inventory.RequireQuantity(&q)
	require.NoError(t, err)
	assert.True(t, got.Equal(q))
}

func TestValidateIDs(t *testing.T) {
	assert.NoError(t, inventory.ValidateIDs(7, 3, 4))
	assert.ErrorIs(t, inventory.ValidateIDs(0, 3), domain.ErrInvalidInput)
	assert.ErrorIs(t, inventory.ValidateIDs(7, 3, -1), domain.ErrInvalidInput)
}

func TestSubtract_ExactamenteACeroPermitido(t *testing.T) {
	next, err := inventory.Subtract(decimal.RequireFromString("65.00"), decimal.RequireFromString("65.00"))
	require.NoError(t, err)
	assert.True(t, next.IsZero())
}

func TestSubtract_InsuficienteConDetalle(t *testing.T) {
	available := decimal.RequireFromString("65.00")
	requested := decimal.RequireFromString("1000.00")

	next, err := inventory.Subtract(available, requested)
	require.Error(t, err)
	assert.True(t, next.Equal(available), "la cantidad no cambia cuando falla")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var detail *domain.InsufficientStockError
	require.True(t, errors.As(err, &detail))
	assert.True(t, detail.Available.Equal(available))
	assert.True(t, detail.Requested.Equal(requested))
	assert.Contains(t, err.Error(), "65.00")
}
