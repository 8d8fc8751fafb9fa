// Package config provides configuration loading for streamline.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file
// and environment variable overrides. See LoadWithFile for precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Merge policy names accepted by CacheConfig.MergePolicy.
const (
	MergePolicyStatusOnly = "status_only"
	MergePolicyReplace    = "replace"
)

// Config holds the complete streamline configuration.
type Config struct {
	Remote        RemoteConfig        `koanf:"remote"`
	Cache         CacheConfig         `koanf:"cache"`
	Server        ServerConfig        `koanf:"server"`
	Auth          AuthConfig          `koanf:"auth"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// RemoteConfig describes the remote entity service the client talks to.
type RemoteConfig struct {
	BaseAddress string   `koanf:"base_address"`
	BearerToken Secret   `koanf:"bearer_token"`
	Timeout     Duration `koanf:"timeout"`
	RateLimit   float64  `koanf:"rate_limit"` // requests per second, 0 disables limiting
	Burst       int      `koanf:"burst"`
}

// CacheConfig controls the manager's entity caches.
type CacheConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MergePolicy string `koanf:"merge_policy"`
}

// ServerConfig holds the entity server configuration.
type ServerConfig struct {
	Host            string   `koanf:"http_host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	SeedFile        string   `koanf:"seed_file"`
}

// AuthConfig holds bearer token settings for the entity server.
//
// When SigningKey is set, tokens are HS256 JWTs. Otherwise the server
// compares the presented token against StaticToken.
type AuthConfig struct {
	SigningKey  Secret   `koanf:"signing_key"`
	StaticToken Secret   `koanf:"static_token"`
	Issuer      string   `koanf:"issuer"`
	TokenTTL    Duration `koanf:"token_ttl"`
}

// ObservabilityConfig holds logging and OpenTelemetry settings.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	LogLevel        string `koanf:"log_level"`
	LogFormat       string `koanf:"log_format"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseAddress: "http://localhost:8080",
			Timeout:     Duration(30 * time.Second),
			RateLimit:   0,
			Burst:       1,
		},
		Cache: CacheConfig{
			Enabled:     true,
			MergePolicy: MergePolicyStatusOnly,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Auth: AuthConfig{
			Issuer:   "streamline",
			TokenTTL: Duration(60 * time.Minute),
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: false,
			ServiceName:     "streamline",
			Endpoint:        "localhost:4317",
			LogLevel:        "info",
			LogFormat:       "json",
		},
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Remote base address is set but is not an absolute http(s) URL
//   - Remote timeout is not positive
//   - Merge policy is unknown
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Service name is empty (when telemetry is enabled)
func (c *Config) Validate() error {
	if c.Remote.BaseAddress != "" {
		u, err := url.Parse(c.Remote.BaseAddress)
		if err != nil {
			return fmt.Errorf("invalid remote base address: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid remote base address %q: must be an absolute http(s) URL", c.Remote.BaseAddress)
		}
	}
	if c.Remote.Timeout.Duration() <= 0 {
		return errors.New("remote timeout must be positive")
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("remote rate limit must be >= 0, got %v", c.Remote.RateLimit)
	}

	switch c.Cache.MergePolicy {
	case MergePolicyStatusOnly, MergePolicyReplace:
	default:
		return fmt.Errorf("unknown cache merge policy %q (want %q or %q)",
			c.Cache.MergePolicy, MergePolicyStatusOnly, MergePolicyReplace)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Auth.SigningKey.IsSet() && c.Auth.TokenTTL.Duration() <= 0 {
		return errors.New("token ttl must be positive when a signing key is set")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
