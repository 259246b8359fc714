// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

const (
	// ProviderOpenAI talks to any OpenAI-compatible embeddings endpoint.
	ProviderOpenAI = "openai"
	// ProviderOllama talks to the native Ollama API.
	ProviderOllama = "ollama"
)

// Config holds configuration for the embedding service.
type Config struct {
	// Provider selects the client implementation: "openai" or "ollama".
	Provider string `yaml:"provider"`

	// Host is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	Host string `yaml:"host"`

	// Model is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	Model string `yaml:"model"`

	// Timeout bounds a single embedding call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrent is the number of embedding calls allowed in flight at once.
	// Default: runtime.NumCPU()
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxRetries is the number of attempts made for each embedding call.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base delay for exponential backoff between attempts.
	// Default: 250ms
	RetryDelay time.Duration `yaml:"retry_delay"`

	// RequestsPerSecond limits the call rate. Zero disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker. Zero disables the breaker.
	// Default: 5
	BreakerFailures int `yaml:"breaker_failures"`

	// BreakerCooldown is how long the breaker stays open before probing again.
	// Default: 30s
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the embedding provider.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxConcurrent sets the number of concurrent embedding calls.
func WithMaxConcurrent(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithMaxRetries sets the number of attempts per embedding call.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithRateLimit sets the maximum number of calls per second.
func WithRateLimit(rps float64) ConfigOption {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

// WithBreaker configures the circuit breaker.
func WithBreaker(failures int, cooldown time.Duration) ConfigOption {
	return func(c *Config) {
		c.BreakerFailures = failures
		c.BreakerCooldown = cooldown
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama
// instance reached through its OpenAI-compatible endpoint.
func DefaultConfig() *Config {
	maxConcurrent := runtime.NumCPU()
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Config{
		Provider:        ProviderOpenAI,
		Host:            "http://localhost:11434/v1",
		Model:           "all-minilm",
		Timeout:         30 * time.Second,
		MaxConcurrent:   maxConcurrent,
		MaxRetries:      3,
		RetryDelay:      250 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithProvider(ProviderOllama),
//       WithHost("http://localhost:11434"),
//       WithModel("nomic-embed-text"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix; native Ollama hosts lose it.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Host == "" {
		return
	}
	c.Host = strings.TrimSuffix(c.Host, "/")
	switch c.Provider {
	case ProviderOpenAI:
		if !strings.HasSuffix(c.Host, "/v1") {
			c.Host = c.Host + "/v1"
		}
	case ProviderOllama:
		c.Host = strings.TrimSuffix(c.Host, "/v1")
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Provider != ProviderOpenAI && c.Provider != ProviderOllama {
		return errors.New("ai config: Provider must be openai or ollama")
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Timeout <= 0 {
		return errors.New("ai config: Timeout must be positive")
	}
	if c.MaxConcurrent < 1 {
		return errors.New("ai config: MaxConcurrent must be at least 1")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("ai config: RequestsPerSecond cannot be negative")
	}
	if c.BreakerFailures < 0 {
		return errors.New("ai config: BreakerFailures cannot be negative")
	}
	return nil
}
