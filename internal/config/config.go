package config

import (
	"time"
)

// Config represents the complete application configuration.
// Layer 1: built-in defaults (setDefaults)
// Layer 2: user config file (~/.config/routelens/config.yaml or --config)
// Layer 3: environment variables and runtime overrides
type Config struct {
	Client  ClientConfig  `mapstructure:"client" yaml:"client"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Relay   RelayConfig   `mapstructure:"relay" yaml:"relay"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Health  HealthConfig  `mapstructure:"health" yaml:"health"`
}

// ClientConfig configures the request dispatcher.
type ClientConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Timeout bounds a single HTTP request. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// RetryTimeout bounds the whole retry chain of one call.
	RetryTimeout time.Duration `mapstructure:"retry_timeout" yaml:"retry_timeout"`

	QueriesPerMinute    int               `mapstructure:"queries_per_minute" yaml:"queries_per_minute"`
	RetryOverQueryLimit bool              `mapstructure:"retry_over_query_limit" yaml:"retry_over_query_limit"`
	Headers             map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	ProxyURL            string            `mapstructure:"proxy_url" yaml:"proxy_url,omitempty"`
	UserAgent           string            `mapstructure:"user_agent" yaml:"user_agent,omitempty"`

	// PersistQuota shares the send window across processes through the store.
	PersistQuota bool `mapstructure:"persist_quota" yaml:"persist_quota"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url,omitempty"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RelayConfig controls how the relay server admits local clients.
type RelayConfig struct {
	// PerClientRate is the sustained requests per second allowed per client.
	// Zero disables inbound throttling.
	PerClientRate float64 `mapstructure:"per_client_rate" yaml:"per_client_rate"`

	// PerClientBurst is the token bucket size per client.
	PerClientBurst int `mapstructure:"per_client_burst" yaml:"per_client_burst"`

	// ClientHeader identifies a client; falls back to the remote address.
	ClientHeader string `mapstructure:"client_header" yaml:"client_header"`

	// MaxBodyBytes caps forwarded request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the dedicated Prometheus exporter port
	Port int `mapstructure:"port" yaml:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Client.APIKey != "" {
		c.Client.APIKey = redact(c.Client.APIKey)
	}
	if c.Store.AuthToken != "" {
		c.Store.AuthToken = redact(c.Store.AuthToken)
	}
	return c
}

func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
