package config

import "time"

// DefaultBaseURL is the production endpoint for the daily picture service.
const DefaultBaseURL = "https://api.nasa.gov/planetary/apod"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Key:            NewSecretString("DEMO_KEY"),
			RequestTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Dir: defaultCacheDir(),
			Memory: MemoryConfig{
				Enabled:         true,
				MaxSizeMB:       64,
				DefaultTTL:      1 * time.Hour,
				CleanupInterval: 1 * time.Minute,
				Shards:          256,
				MaxEntrySize:    10 * 1024 * 1024, // 10MB, hi-res assets
			},
			RetainHistory: false,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: 30 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "stargaze",
				Tags:      []string{},
			},
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting(dir string) *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:0",
			Key:            NewSecretString("TEST_KEY"),
			RequestTimeout: 1 * time.Second,
		},
		Cache: CacheConfig{
			Dir: dir,
			Memory: MemoryConfig{
				Enabled:         true,
				MaxSizeMB:       8,
				DefaultTTL:      1 * time.Minute,
				CleanupInterval: 1 * time.Second,
				Shards:          64,
				MaxEntrySize:    1024 * 1024,
			},
			RetainHistory: false,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			MaxFailures:  3,
			ResetTimeout: 50 * time.Millisecond,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   1 * time.Millisecond,
			MaxDelay:    10 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: 1 * time.Second,
		},
	}
}
