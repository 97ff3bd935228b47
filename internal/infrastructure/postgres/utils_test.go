package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

func TestStoreErr_EnvuelveComoNoDisponible(t *testing.T) {
	assert.NoError(t, storeErr("get stock", nil))

	err := storeErr("get stock", context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "get stock")
}

func TestWriteErr_RangoYCheckSonCantidadInvalida(t *testing.T) {
	for _, code := range []string{"22003", "23514"} {
		err := writeErr("update stock", &pgconn.PgError{Code: code, Message: "numeric field overflow"})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, code)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable, code)
	}

	err := writeErr("update stock", &pgconn.PgError{Code: "57P01"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable, "admin_shutdown sigue siendo una caída")
	assert.NotErrorIs(t, err, domain.ErrInvalidQuantity)
}
