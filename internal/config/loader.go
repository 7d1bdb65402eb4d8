package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/studioconnect/relay/pkg/logger"
)

// Loader reads configuration from file and environment and can watch the
// config file for rate-limit changes.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(log logger.Logger) *Loader {
	return &Loader{v: viper.New(), log: log}
}

// Load reads configuration from defaults, the optional config file and
// RELAY_-prefixed environment variables, in increasing precedence.
func (l *Loader) Load() (*Config, error) {
	setDefaults(l.v)

	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath("/etc/relay/")
	l.v.AddConfigPath(".")
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	l.v.SetEnvPrefix("RELAY")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-reads the config file on change and calls onChange with the new
// configuration. Invalid updates are logged and dropped; the previous
// configuration stays in effect.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			l.log.Error(context.Background(), "failed to reload config", err, logger.Fields{"file": e.Name})
			return
		}
		if err := cfg.Validate(); err != nil {
			l.log.Error(context.Background(), "rejected invalid config update", err, logger.Fields{"file": e.Name})
			return
		}
		l.log.Info(context.Background(), "configuration reloaded", logger.Fields{"file": e.Name})
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 60)

	v.SetDefault("store.backend", "redis")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5)

	v.SetDefault("session.ttl", 300)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", 60)
	// Poll gets a larger budget: clients poll every 2 seconds.
	v.SetDefault("rate_limit.limits.init", 10)
	v.SetDefault("rate_limit.limits.callback", 10)
	v.SetDefault("rate_limit.limits.poll", 30)
	v.SetDefault("rate_limit.limits.exchange", 10)

	v.SetDefault("providers.slack.enabled", true)
	v.SetDefault("providers.slack.token_url", "https://slack.com/api/oauth.v2.access")
	v.SetDefault("providers.discord.enabled", false)
	v.SetDefault("providers.discord.token_url", "https://discord.com/api/oauth2/token")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.topic", "relay.audit")
	v.SetDefault("audit.batch_timeout", 100)

	v.SetDefault("log.level", "info")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "oauth-relay")

	v.SetDefault("monitoring.pprof_enabled", false)
}
