package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment
// overrides. A .env file in the working directory is loaded first if present.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STARGAZE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STARGAZE_API_KEY"); v != "" {
		cfg.API.Key = NewSecretString(v)
	}
	if v := os.Getenv("STARGAZE_API_REQUEST_TIMEOUT"); v != "" {
		cfg.API.RequestTimeout = parseDuration(v, cfg.API.RequestTimeout)
	}

	if v := os.Getenv("STARGAZE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("STARGAZE_CACHE_RETAIN_HISTORY"); v != "" {
		cfg.Cache.RetainHistory = parseBool(v)
	}
	if v := os.Getenv("STARGAZE_MEMORY_ENABLED"); v != "" {
		cfg.Cache.Memory.Enabled = parseBool(v)
	}
	if v := os.Getenv("STARGAZE_MEMORY_MAX_SIZE_MB"); v != "" {
		cfg.Cache.Memory.MaxSizeMB = parseInt(v, cfg.Cache.Memory.MaxSizeMB)
	}
	if v := os.Getenv("STARGAZE_MEMORY_DEFAULT_TTL"); v != "" {
		cfg.Cache.Memory.DefaultTTL = parseDuration(v, cfg.Cache.Memory.DefaultTTL)
	}

	if v := os.Getenv("STARGAZE_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("STARGAZE_CIRCUIT_BREAKER_MAX_FAILURES"); v != "" {
		cfg.CircuitBreaker.MaxFailures = parseInt(v, cfg.CircuitBreaker.MaxFailures)
	}
	if v := os.Getenv("STARGAZE_CIRCUIT_BREAKER_RESET_TIMEOUT"); v != "" {
		cfg.CircuitBreaker.ResetTimeout = parseDuration(v, cfg.CircuitBreaker.ResetTimeout)
	}

	if v := os.Getenv("STARGAZE_RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("STARGAZE_RETRY_MAX_ATTEMPTS"); v != "" {
		cfg.Retry.MaxAttempts = parseInt(v, cfg.Retry.MaxAttempts)
	}
	if v := os.Getenv("STARGAZE_RETRY_BASE_DELAY"); v != "" {
		cfg.Retry.BaseDelay = parseDuration(v, cfg.Retry.BaseDelay)
	}
	if v := os.Getenv("STARGAZE_RETRY_MAX_DELAY"); v != "" {
		cfg.Retry.MaxDelay = parseDuration(v, cfg.Retry.MaxDelay)
	}

	if v := os.Getenv("STARGAZE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "stargaze")
	}
	return filepath.Join(base, "stargaze")
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
