// Package config provides configuration management for stargaze.
package config

import (
	"fmt"
	"time"

	"github.com/duskrise/stargaze/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the stargaze client.
type Config struct {
	API            APIConfig            `json:"api"`
	Cache          CacheConfig          `json:"cache"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Retry          RetryConfig          `json:"retry"`
	Metrics        MetricsConfig        `json:"metrics"`
}

// APIConfig contains configuration for the remote service endpoint.
type APIConfig struct {
	BaseURL        string        `json:"baseURL"`
	Key            SecretString  `json:"key"`
	RequestTimeout time.Duration `json:"requestTimeout"`
}

// CacheConfig contains configuration for the two-tier content cache.
type CacheConfig struct {
	// Dir is the durable cache directory. Record and blob entries live in
	// subdirectories of it.
	Dir string `json:"dir"`

	Memory MemoryConfig `json:"memory"`

	// RetainHistory keeps prior blob entries on disk when the last-successful
	// slot is written. When false only the most recent successful asset is
	// retained.
	RetainHistory bool `json:"retainHistory"`
}

// MemoryConfig contains configuration for the in-memory cache tier.
type MemoryConfig struct {
	DefaultTTL      time.Duration `json:"defaultTTL"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	MaxSizeMB       int           `json:"maxSizeMB"`
	Shards          int           `json:"shards"`
	MaxEntrySize    int           `json:"maxEntrySize"`
	Enabled         bool          `json:"enabled"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled      bool          `json:"enabled"`
	MaxFailures  int           `json:"maxFailures"`
	ResetTimeout time.Duration `json:"resetTimeout"`
}

// RetryConfig contains configuration for the retry policy.
type RetryConfig struct {
	Enabled     bool          `json:"enabled"`
	MaxAttempts int           `json:"maxAttempts"`
	BaseDelay   time.Duration `json:"baseDelay"`
	MaxDelay    time.Duration `json:"maxDelay"`
}

// MetricsConfig contains configuration for metrics publishing.
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseURL is required")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.requestTimeout must be positive")
	}

	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if c.Cache.Memory.Enabled {
		if c.Cache.Memory.MaxSizeMB <= 0 {
			return fmt.Errorf("cache.memory.maxSizeMB must be positive")
		}
		if c.Cache.Memory.Shards <= 0 || (c.Cache.Memory.Shards&(c.Cache.Memory.Shards-1)) != 0 {
			return fmt.Errorf("cache.memory.shards must be a positive power of 2")
		}
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.MaxFailures <= 0 {
			return fmt.Errorf("circuitBreaker.maxFailures must be positive")
		}
		if c.CircuitBreaker.ResetTimeout <= 0 {
			return fmt.Errorf("circuitBreaker.resetTimeout must be positive")
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts < 1 {
			return fmt.Errorf("retry.maxAttempts must be at least 1")
		}
		if c.Retry.BaseDelay <= 0 {
			return fmt.Errorf("retry.baseDelay must be positive")
		}
		if c.Retry.MaxDelay < c.Retry.BaseDelay {
			return fmt.Errorf("retry.maxDelay must be at least baseDelay")
		}
	}

	return nil
}
