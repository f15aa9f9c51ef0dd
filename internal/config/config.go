package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sheikh-saqib/double-entry-ledger/internal/storage/postgres"
)

// EngineConfig holds the engine's policy knobs.
type EngineConfig struct {
	// DefaultType classifies transactions created without an explicit
	// type.
	DefaultType string `yaml:"default_type"`
	// RequireEvidence rejects transactions that cite no evidence.
	RequireEvidence bool `yaml:"require_evidence"`
	// VoidAttempts bounds retries of the void path on storage conflicts.
	VoidAttempts int `yaml:"void_attempts"`
}

// Config is the full server configuration. Values load in order: defaults,
// then an optional YAML file, then environment variables (a .env file is
// honored if present).
type Config struct {
	HTTPAddr     string          `yaml:"http_addr"`
	KafkaBrokers []string        `yaml:"kafka_brokers"`
	Postgres     postgres.Config `yaml:"postgres"`
	Engine       EngineConfig    `yaml:"engine"`
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Postgres: postgres.DefaultConfig(),
		Engine: EngineConfig{
			DefaultType:  "manual",
			VoidAttempts: 3,
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LEDGER_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxOpenConns = n
		}
	}
	if v := os.Getenv("PG_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Postgres.QueryTimeout = d
		}
	}
	if v := os.Getenv("LEDGER_DEFAULT_TYPE"); v != "" {
		cfg.Engine.DefaultType = v
	}
	if v := os.Getenv("LEDGER_REQUIRE_EVIDENCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.RequireEvidence = b
		}
	}
	if v := os.Getenv("LEDGER_VOID_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.VoidAttempts = n
		}
	}
}
