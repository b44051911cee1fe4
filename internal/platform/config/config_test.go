package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"STOREFRONT_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "ACCESS_TOKEN_TTL", "DB_MAX_OPEN_CONNS", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.NotEmpty(t, cfg.Auth.JWTSigningKey)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("SEED_DEMO_TENANT", "true")
	t.Setenv("ADMIN_TOKEN", "metrics-secret")
	t.Setenv("HTTP_WRITE_TIMEOUT", "45s")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Seed.DemoTenant)
	assert.Equal(t, "metrics-secret", cfg.AdminToken)
	assert.Equal(t, 45*time.Second, cfg.HTTP.WriteTimeout)
}
