package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "manual", cfg.Engine.DefaultType)
	assert.False(t, cfg.Engine.RequireEvidence)
	assert.Equal(t, 3, cfg.Engine.VoidAttempts)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
kafka_brokers: ["broker-1:9092", "broker-2:9092"]
postgres:
  dsn: "postgres://ledger@localhost/ledger"
  max_open_conns: 25
engine:
  default_type: "automatic"
  require_evidence: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.Postgres.DSN)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, "automatic", cfg.Engine.DefaultType)
	assert.True(t, cfg.Engine.RequireEvidence)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\n"), 0o600))

	t.Setenv("LEDGER_HTTP_ADDR", ":7070")
	t.Setenv("LEDGER_DEFAULT_TYPE", "migration")
	t.Setenv("LEDGER_REQUIRE_EVIDENCE", "true")
	t.Setenv("LEDGER_VOID_ATTEMPTS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "migration", cfg.Engine.DefaultType)
	assert.True(t, cfg.Engine.RequireEvidence)
	assert.Equal(t, 5, cfg.Engine.VoidAttempts)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
