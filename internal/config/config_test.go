package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "REDIS_ADDR", "CLICKHOUSE_DSN", "DEFAULT_GEO", "DEFAULT_DEVICE", "PAGE_TYPE_PRIORITY", "ENSURE_SCHEMA"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8787", cfg.Port)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, "", cfg.ClickHouseDSN)
	assert.Equal(t, "uk", cfg.DefaultGeo)
	assert.Equal(t, "mobile", cfg.DefaultDevice)
	assert.Equal(t, DefaultPageTypePriority, cfg.PageTypePriority)
	assert.True(t, cfg.EnsureSchema)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("READ_TIMEOUT", "7")
	t.Setenv("WRITE_TIMEOUT", "250ms")
	t.Setenv("DEFAULT_GEO", "de")
	t.Setenv("PAGE_TYPE_PRIORITY", " article, ,index ")
	t.Setenv("TRACING_SAMPLE_RATE", "0.25")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 7*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, "de", cfg.DefaultGeo)
	assert.Equal(t, []string{"article", "index"}, cfg.PageTypePriority)
	assert.Equal(t, 0.25, cfg.TracingSampleRate)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
}

func TestEnvListBlank(t *testing.T) {
	t.Setenv("LIST_UNDER_TEST", " , ")
	assert.Equal(t, []string{"x"}, envList("LIST_UNDER_TEST", []string{"x"}))
}
