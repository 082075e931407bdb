package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sentinel", cfg.App.Name)
	assert.Equal(t, []string{"aave"}, cfg.Monitor.Protocols)
	assert.Equal(t, 15.0, cfg.Monitor.AlertThresholdPct)
	assert.Equal(t, 10, cfg.Monitor.DiscoveryEvery)
	assert.Equal(t, "coingecko", cfg.Oracle.Provider)
	assert.Equal(t, 30, cfg.Oracle.RequestsPerMinute)

	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONITOR_WALLET", "0x1111111111111111111111111111111111111111")
	t.Setenv("MONITOR_PROTOCOLS", "aave,compound,curve")
	t.Setenv("MONITOR_ALERT_THRESHOLD_PCT", "25")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "sentinel")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.Monitor.Wallet)
	assert.Equal(t, []string{"aave", "compound", "curve"}, cfg.Monitor.Protocols)
	assert.Equal(t, 25.0, cfg.Monitor.AlertThresholdPct)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())

	assert.True(t, cfg.Postgres.Enabled())
	assert.Contains(t, cfg.Postgres.DSN(), "host=localhost")
	assert.Contains(t, cfg.Postgres.DSN(), "dbname=sentinel")

	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}
