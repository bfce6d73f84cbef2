package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "lendgate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "LENDGATE_PORT")
	setString(&cfg.Server.CORSOrigin, "LENDGATE_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "LENDGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LENDGATE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "LENDGATE_LOG_ASYNC")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "LENDGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "LENDGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "LENDGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "LENDGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "LENDGATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.Telemetry.Enabled, "LENDGATE_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "LENDGATE_OTLP_ENDPOINT")

	setFloat64(&cfg.Resilience.ErrorThresholdPct, "LENDGATE_ERROR_THRESHOLD_PCT")
	setInt(&cfg.Resilience.MinimumVolume, "LENDGATE_MINIMUM_VOLUME")
	setDuration(&cfg.Resilience.ResetTimeout, "LENDGATE_RESET_TIMEOUT")
	setDuration(&cfg.Resilience.RollingWindow, "LENDGATE_ROLLING_WINDOW")
	setInt(&cfg.Resilience.BucketCount, "LENDGATE_BUCKET_COUNT")
	setInt(&cfg.Resilience.MaxRetries, "LENDGATE_MAX_RETRIES")
	setDuration(&cfg.Resilience.BaseDelay, "LENDGATE_BASE_DELAY")
	setInt64(&cfg.Resilience.MaxHalfOpenTrials, "LENDGATE_MAX_HALF_OPEN_TRIALS")

	setString(&cfg.EIN.BaseURL, "EIN_VERIFICATION_URL")
	setString(&cfg.EIN.APIKey, "EIN_VERIFICATION_API_KEY")
	setDuration(&cfg.EIN.Timeout, "LENDGATE_EIN_TIMEOUT")
	setInt64(&cfg.EIN.CacheMB, "LENDGATE_EIN_CACHE_MB")
	setDuration(&cfg.EIN.CacheTTL, "LENDGATE_EIN_CACHE_TTL")
	setBool(&cfg.EIN.Mock, "USE_MOCK_EIN_VERIFICATION")

	setString(&cfg.Graph.BaseURL, "GRAPH_BASE_URL")
	setString(&cfg.Graph.AccessToken, "GRAPH_ACCESS_TOKEN")
	setDuration(&cfg.Graph.Timeout, "LENDGATE_GRAPH_TIMEOUT")
	setBool(&cfg.Graph.Mock, "USE_MOCK_GRAPH")

	setString(&cfg.DocIntel.BaseURL, "DOC_INTEL_ENDPOINT")
	setString(&cfg.DocIntel.APIKey, "DOC_INTEL_API_KEY")
	setDuration(&cfg.DocIntel.Timeout, "LENDGATE_DOC_INTEL_TIMEOUT")
	setDuration(&cfg.DocIntel.PollInterval, "LENDGATE_DOC_INTEL_POLL_INTERVAL")
	setBool(&cfg.DocIntel.Mock, "USE_MOCK_DOC_INTEL")

	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setDuration(&cfg.LLM.Timeout, "LENDGATE_LLM_TIMEOUT")
	setBool(&cfg.LLM.Mock, "USE_MOCK_LLM")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Resilience.ErrorThresholdPct <= 0 || cfg.Resilience.ErrorThresholdPct > 100 {
		return errors.New("resilience.error_threshold_pct must be in (0, 100]")
	}
	if cfg.Resilience.MinimumVolume < 1 {
		return errors.New("resilience.minimum_volume must be >= 1")
	}
	if cfg.Resilience.BucketCount < 1 {
		return errors.New("resilience.bucket_count must be >= 1")
	}
	if cfg.Resilience.MaxRetries < 1 {
		return errors.New("resilience.max_retries must be >= 1")
	}
	if cfg.Resilience.MaxHalfOpenTrials < 1 {
		return errors.New("resilience.max_half_open_trials must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
