package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StoreMemory, cfg.Ledger.Store)
	assert.Equal(t, uint64(8), cfg.Ledger.MaxRetries)
	assert.Equal(t, 5*time.Millisecond, cfg.Ledger.RetryInitial)
	assert.Equal(t, 200*time.Millisecond, cfg.Ledger.RetryMax)
	assert.Equal(t, int32(25), cfg.DB.MaxConns)
	assert.True(t, cfg.DB.Migrate)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeValoresComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE", "Postgres")
	v.Set("LEDGER_MAX_RETRIES", "3")
	v.Set("LEDGER_RETRY_INITIAL_MS", "10")
	v.Set("LEDGER_RETRY_MAX_MS", "50")
	v.Set("HTTP_PORT", "9090")
	v.Set("DB_MIGRATE", "false")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Ledger.Store)
	assert.Equal(t, uint64(3), cfg.Ledger.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.Ledger.RetryInitial)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.RetryMax)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.False(t, cfg.DB.Migrate)
}

func TestFromViper_RechazaStoreDesconocido(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE", "redis")
	_, err := FromViper(v)
	assert.Error(t, err)
}

func TestFromViper_ProductionExigeSecreto(t *testing.T) {
	v := viper.New()
	v.Set("APP_ENV", "production")
	_, err := FromViper(v)
	assert.Error(t, err)

	v.Set("JWT_SECRET", "s3cr3t")
	_, err = FromViper(v)
	assert.NoError(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
