package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "db.internal"
  port: 3306
  user: "svc"
  password: "secret"
  database: "campaign_sync"

sync:
  workers: 8
  strategy: "truncate"
  include_deleted: true
  truncation:
    headline: true
    preserve_word_boundary: true

breaker:
  failure_threshold: 10
  reset_timeout: "2m"

platforms:
  mock:
    enabled: true
    failure_rate: 0.25
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 3306 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Sync.Workers != 8 || cfg.Sync.Strategy != "truncate" {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if !cfg.Sync.IncludeDeleted || !cfg.Sync.Truncation.Headline {
		t.Errorf("sync flags = %+v", cfg.Sync)
	}
	if cfg.Breaker.FailureThreshold != 10 {
		t.Errorf("failureThreshold = %d", cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.GetResetTimeout() != 2*time.Minute {
		t.Errorf("resetTimeout = %s", cfg.Breaker.GetResetTimeout())
	}
	if cfg.Platforms.Mock.FailureRate != 0.25 {
		t.Errorf("mock failure rate = %v", cfg.Platforms.Mock.FailureRate)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "localhost"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Sync.Workers != 4 {
		t.Errorf("default workers = %d, want 4", cfg.Sync.Workers)
	}
	if cfg.Sync.Strategy != "skip" {
		t.Errorf("default strategy = %q, want skip", cfg.Sync.Strategy)
	}
	if cfg.Breaker.FailureThreshold != 5 {
		t.Errorf("default failure threshold = %d, want 5", cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.GetResetTimeout() != 60*time.Second {
		t.Errorf("default reset timeout = %s", cfg.Breaker.GetResetTimeout())
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestDurationAccessors_BadValuesFallBack(t *testing.T) {
	s := SyncConfig{RetryBase: "bogus", RetryMaxDelay: ""}
	if s.GetRetryBase() != 30*time.Second {
		t.Errorf("retry base = %s, want 30s fallback", s.GetRetryBase())
	}
	if s.GetRetryMaxDelay() != time.Hour {
		t.Errorf("retry max delay = %s, want 1h fallback", s.GetRetryMaxDelay())
	}

	b := BreakerConfig{ResetTimeout: "soon"}
	if b.GetResetTimeout() != 60*time.Second {
		t.Errorf("reset timeout = %s, want 60s fallback", b.GetResetTimeout())
	}
}
