package config

import (
	"fmt"
	"time"

	"github.com/studioconnect/relay/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Store      StoreConfig               `mapstructure:"store"`
	Redis      RedisConfig               `mapstructure:"redis"`
	Session    SessionConfig             `mapstructure:"session"`
	RateLimit  RateLimitConfig           `mapstructure:"rate_limit"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Vault      VaultConfig               `mapstructure:"vault"`
	Audit      AuditConfig               `mapstructure:"audit"`
	Log        LogConfig                 `mapstructure:"log"`
	Tracing    TracingConfig             `mapstructure:"tracing"`
	Monitoring MonitoringConfig          `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // seconds
}

// StoreConfig selects the KV backend. "redis" is the production backend;
// "memory" keeps everything in-process for local development.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"` // seconds
}

type SessionConfig struct {
	TTL int `mapstructure:"ttl"` // seconds
}

// TTLDuration returns the session TTL as a duration.
func (c *SessionConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// RateLimitConfig is the per-endpoint-class admission control table.
// Every endpoint class the coordinator exposes must have a limit entry;
// a missing entry is a configuration error, not a silent zero.
type RateLimitConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Window  int            `mapstructure:"window"` // seconds
	Limits  map[string]int `mapstructure:"limits"` // requests per window
}

// WindowDuration returns the fixed window length as a duration.
func (c *RateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(c.Window) * time.Second
}

// ProviderConfig describes one OAuth provider the relay fronts.
type ProviderConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	// VaultPath, when set, overrides ClientID/ClientSecret with the
	// credentials stored at this Vault KV path.
	VaultPath string `mapstructure:"vault_path"`
}

type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
}

type AuditConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	BatchTimeout int      `mapstructure:"batch_timeout"` // milliseconds
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for essential configuration values. It fails fast on a
// rate-limit table that does not cover every endpoint class in use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Store.Backend != "redis" && c.Store.Backend != "memory" {
		return fmt.Errorf("store.backend must be \"redis\" or \"memory\", got %q", c.Store.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %d", c.Session.TTL)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %d", c.RateLimit.Window)
	}
	for _, class := range constants.EndpointClasses {
		limit, ok := c.RateLimit.Limits[string(class)]
		if !ok {
			return fmt.Errorf("rate_limit.limits is missing an entry for endpoint class %q", class)
		}
		if limit <= 0 {
			return fmt.Errorf("rate_limit.limits.%s must be positive, got %d", class, limit)
		}
	}
	return nil
}
