package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	token, err := Generate("secret", "u-1", 42, "INVENTORY_MANAGER", "stock-ledger", 5)
	require.NoError(t, err)

	claims, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, int64(42), claims.TenantID)
	assert.Equal(t, "INVENTORY_MANAGER", claims.Role)
	assert.Equal(t, "stock-ledger", claims.Issuer)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := Generate("secret", "u-1", 42, "ADMIN", "stock-ledger", 5)
	require.NoError(t, err)

	_, err = Parse("otro", token)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	token, err := Generate("secret", "u-1", 42, "ADMIN", "stock-ledger", -1)
	require.NoError(t, err)

	_, err = Parse("secret", token)
	assert.Error(t, err)
}

func TestParse_SinTenant(t *testing.T) {
	token, err := Generate("secret", "u-1", 0, "ADMIN", "stock-ledger", 5)
	require.NoError(t, err)

	_, err = Parse("secret", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "u-1", 1, "ADMIN", "x", 5)
	assert.Error(t, err)
}
