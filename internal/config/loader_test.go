package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Resilience.ErrorThresholdPct != 50 {
		t.Errorf("expected error threshold 50, got %v", cfg.Resilience.ErrorThresholdPct)
	}
	if cfg.Resilience.ResetTimeout != 60*time.Second {
		t.Errorf("expected reset timeout 60s, got %v", cfg.Resilience.ResetTimeout)
	}
	// A fresh checkout must run without credentials: every dependency mocks.
	if !cfg.EIN.Mock || !cfg.Graph.Mock || !cfg.DocIntel.Mock || !cfg.LLM.Mock {
		t.Error("expected all dependencies to default to mock mode")
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
resilience:
  error_threshold_pct: 40
  max_retries: 5
ein_verification:
  mock: false
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Resilience.ErrorThresholdPct != 40 {
		t.Errorf("expected threshold 40, got %v", cfg.Resilience.ErrorThresholdPct)
	}
	if cfg.Resilience.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", cfg.Resilience.MaxRetries)
	}
	if cfg.EIN.Mock {
		t.Error("expected ein mock disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("LENDGATE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("LENDGATE_ERROR_THRESHOLD_PCT", "65.5")
	t.Setenv("LENDGATE_RESET_TIMEOUT", "90s")
	t.Setenv("LENDGATE_LOG_LEVEL", "warn")
	t.Setenv("USE_MOCK_EIN_VERIFICATION", "false")
	t.Setenv("EIN_VERIFICATION_URL", "https://ein.test.gov")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Resilience.ErrorThresholdPct != 65.5 {
		t.Errorf("expected threshold 65.5, got %v", cfg.Resilience.ErrorThresholdPct)
	}
	if cfg.Resilience.ResetTimeout != 90*time.Second {
		t.Errorf("expected reset timeout 90s, got %v", cfg.Resilience.ResetTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.EIN.Mock {
		t.Error("expected ein mock disabled via env")
	}
	if cfg.EIN.BaseURL != "https://ein.test.gov" {
		t.Errorf("expected ein base url override, got %s", cfg.EIN.BaseURL)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Resilience.ErrorThresholdPct = 150
	if err := validate(&cfg); err == nil {
		t.Error("expected error for threshold above 100")
	}

	cfg = Defaults()
	cfg.Resilience.MinimumVolume = 0
	if err := validate(&cfg); err == nil {
		t.Error("expected error for zero minimum volume")
	}
}

func TestLoadFromAppliesPrecedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")
	content := `
server:
  port: "9090"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// ENV wins over YAML.
	t.Setenv("LENDGATE_PORT", "7070")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected env to win over yaml, got %s", cfg.Server.Port)
	}
}
