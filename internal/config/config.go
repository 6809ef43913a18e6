package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the engine server.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Redis struct {
		Addr string `mapstructure:"addr"`
		DB   int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Engine struct {
		MaxRetries    int `mapstructure:"max_retries"`
		BaseBackoffMs int `mapstructure:"base_backoff_ms"`
		MaxBackoffMs  int `mapstructure:"max_backoff_ms"`
	} `mapstructure:"engine"`
	Workers struct {
		DefaultTimeoutMs int64            `mapstructure:"default_timeout_ms"`
		TimeoutsMs       map[string]int64 `mapstructure:"timeouts_ms"`
	} `mapstructure:"workers"`
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("CURRICULUM")
	// Nested keys map to env vars as CURRICULUM_DB_PASSWORD, CURRICULUM_SERVER_ADDR, ...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "")
	viper.SetDefault("db.name", "curriculum")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("engine.max_retries", 2)
	viper.SetDefault("engine.base_backoff_ms", 500)
	viper.SetDefault("engine.max_backoff_ms", 30000)
	viper.SetDefault("workers.default_timeout_ms", 60000)

	if err := viper.ReadInConfig(); err != nil {
		// Defaults and env are enough to run; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port, c.DB.SSLMode)
}

// BaseBackoff returns the engine base backoff as a duration.
func (c *Config) BaseBackoff() time.Duration {
	return time.Duration(c.Engine.BaseBackoffMs) * time.Millisecond
}

// MaxBackoff returns the engine backoff cap as a duration.
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Engine.MaxBackoffMs) * time.Millisecond
}

// WorkerTimeouts maps the configured per-worker-type timeouts to durations.
func (c *Config) WorkerTimeouts() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Workers.TimeoutsMs))
	for workerType, ms := range c.Workers.TimeoutsMs {
		out[workerType] = time.Duration(ms) * time.Millisecond
	}
	return out
}

// DefaultWorkerTimeout returns the fallback invocation timeout.
func (c *Config) DefaultWorkerTimeout() time.Duration {
	return time.Duration(c.Workers.DefaultTimeoutMs) * time.Millisecond
}
