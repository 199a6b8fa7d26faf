package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Key.Value() != "DEMO_KEY" {
		t.Errorf("Key = %q, want DEMO_KEY", cfg.API.Key.Value())
	}
	if !cfg.CircuitBreaker.Enabled || cfg.CircuitBreaker.MaxFailures != 5 {
		t.Errorf("CircuitBreaker = %+v, want enabled with 5 max failures", cfg.CircuitBreaker)
	}
	if !cfg.Retry.Enabled || cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry = %+v, want enabled with 3 attempts", cfg.Retry)
	}
	if cfg.Cache.RetainHistory {
		t.Error("RetainHistory = true, want false by default")
	}
}

func TestForTesting(t *testing.T) {
	cfg := ForTesting(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Errorf("ForTesting().Validate() = %v, want nil", err)
	}
	if cfg.CircuitBreaker.ResetTimeout >= time.Second {
		t.Errorf("ResetTimeout = %v, want sub-second for tests", cfg.CircuitBreaker.ResetTimeout)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return ForTesting(t.TempDir()) }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero request timeout", func(c *Config) { c.API.RequestTimeout = 0 }},
		{"missing cache dir", func(c *Config) { c.Cache.Dir = "" }},
		{"zero memory size", func(c *Config) { c.Cache.Memory.MaxSizeMB = 0 }},
		{"non power-of-2 shards", func(c *Config) { c.Cache.Memory.Shards = 100 }},
		{"zero max failures", func(c *Config) { c.CircuitBreaker.MaxFailures = 0 }},
		{"zero reset timeout", func(c *Config) { c.CircuitBreaker.ResetTimeout = 0 }},
		{"zero retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero base delay", func(c *Config) { c.Retry.BaseDelay = 0 }},
		{"max delay below base", func(c *Config) { c.Retry.MaxDelay = c.Retry.BaseDelay / 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	t.Run("disabled sections skip their checks", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Memory.Enabled = false
		cfg.Cache.Memory.MaxSizeMB = 0
		cfg.CircuitBreaker.Enabled = false
		cfg.CircuitBreaker.MaxFailures = 0
		cfg.Retry.Enabled = false
		cfg.Retry.MaxAttempts = 0

		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil with sections disabled", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.API.BaseURL != DefaultBaseURL {
			t.Errorf("BaseURL = %q, want default", cfg.API.BaseURL)
		}
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Retry.MaxAttempts != 3 {
			t.Errorf("MaxAttempts = %d, want default 3", cfg.Retry.MaxAttempts)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{
			"api": {"baseURL": "https://staging.example.com/apod", "requestTimeout": 5000000000},
			"retry": {"enabled": true, "maxAttempts": 7, "baseDelay": 1000000, "maxDelay": 10000000}
		}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.API.BaseURL != "https://staging.example.com/apod" {
			t.Errorf("BaseURL = %q, want staging url", cfg.API.BaseURL)
		}
		if cfg.Retry.MaxAttempts != 7 {
			t.Errorf("MaxAttempts = %d, want 7", cfg.Retry.MaxAttempts)
		}
		// Untouched sections keep their defaults
		if cfg.CircuitBreaker.MaxFailures != 5 {
			t.Errorf("MaxFailures = %d, want default 5", cfg.CircuitBreaker.MaxFailures)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() = nil, want parse error")
		}
	})

	t.Run("invalid values are an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"api": {"baseURL": "", "requestTimeout": 1000000000}}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Error("Load() = nil, want validation error")
		}
	})
}

func TestLoadWithEnv(t *testing.T) {
	t.Run("env overrides file and defaults", func(t *testing.T) {
		t.Setenv("STARGAZE_API_KEY", "env-key")
		t.Setenv("STARGAZE_API_BASE_URL", "https://env.example.com/apod")
		t.Setenv("STARGAZE_RETRY_MAX_ATTEMPTS", "9")
		t.Setenv("STARGAZE_CIRCUIT_BREAKER_RESET_TIMEOUT", "45s")
		t.Setenv("STARGAZE_CACHE_RETAIN_HISTORY", "true")

		cfg, err := LoadWithEnv("")
		if err != nil {
			t.Fatalf("LoadWithEnv() error = %v", err)
		}

		if cfg.API.Key.Value() != "env-key" {
			t.Errorf("Key = %q, want env-key", cfg.API.Key.Value())
		}
		if cfg.API.BaseURL != "https://env.example.com/apod" {
			t.Errorf("BaseURL = %q, want env value", cfg.API.BaseURL)
		}
		if cfg.Retry.MaxAttempts != 9 {
			t.Errorf("MaxAttempts = %d, want 9", cfg.Retry.MaxAttempts)
		}
		if cfg.CircuitBreaker.ResetTimeout != 45*time.Second {
			t.Errorf("ResetTimeout = %v, want 45s", cfg.CircuitBreaker.ResetTimeout)
		}
		if !cfg.Cache.RetainHistory {
			t.Error("RetainHistory = false, want true from env")
		}
	})

	t.Run("datadog agent env enables publishing", func(t *testing.T) {
		t.Setenv("DD_AGENT_HOST", "datadog.internal")
		t.Setenv("DD_DOGSTATSD_PORT", "9125")

		cfg, err := LoadWithEnv("")
		if err != nil {
			t.Fatalf("LoadWithEnv() error = %v", err)
		}
		if !cfg.Metrics.DataDog.Enabled {
			t.Error("DataDog.Enabled = false, want true when DD_AGENT_HOST set")
		}
		if cfg.Metrics.DataDog.AgentHost != "datadog.internal" {
			t.Errorf("AgentHost = %q, want datadog.internal", cfg.Metrics.DataDog.AgentHost)
		}
		if cfg.Metrics.DataDog.Port != 9125 {
			t.Errorf("Port = %d, want 9125", cfg.Metrics.DataDog.Port)
		}
	})

	t.Run("bad numeric env falls back to default", func(t *testing.T) {
		t.Setenv("STARGAZE_RETRY_MAX_ATTEMPTS", "lots")

		cfg, err := LoadWithEnv("")
		if err != nil {
			t.Fatalf("LoadWithEnv() error = %v", err)
		}
		if cfg.Retry.MaxAttempts != 3 {
			t.Errorf("MaxAttempts = %d, want default 3", cfg.Retry.MaxAttempts)
		}
	})
}

func TestParseHelpers(t *testing.T) {
	t.Run("parseBool", func(t *testing.T) {
		for _, v := range []string{"true", "1", "yes", "on", " TRUE "} {
			if !parseBool(v) {
				t.Errorf("parseBool(%q) = false, want true", v)
			}
		}
		for _, v := range []string{"false", "0", "no", "off", "", "maybe"} {
			if parseBool(v) {
				t.Errorf("parseBool(%q) = true, want false", v)
			}
		}
	})

	t.Run("parseDuration accepts bare seconds", func(t *testing.T) {
		if got := parseDuration("30", 0); got != 30*time.Second {
			t.Errorf("parseDuration(30) = %v, want 30s", got)
		}
		if got := parseDuration("1m30s", 0); got != 90*time.Second {
			t.Errorf("parseDuration(1m30s) = %v, want 90s", got)
		}
		if got := parseDuration("junk", 5*time.Second); got != 5*time.Second {
			t.Errorf("parseDuration(junk) = %v, want default", got)
		}
	})
}
