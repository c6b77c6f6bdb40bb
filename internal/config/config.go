// Package config provides configuration for mission control.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort       int           `yaml:"http_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Delegation policy
	PolicyFile    string `yaml:"policy_file"`
	ModelOverride string `yaml:"model_override"`

	// Escalation routing
	DefaultOrigin      string `yaml:"default_origin"`
	DefaultDestination string `yaml:"default_destination"`

	// Activity feed
	Feed FeedConfig `yaml:"feed"`

	// Logging
	Log LogConfig `yaml:"log"`
}

// DatabaseConfig selects the SQLite driver and DSN.
type DatabaseConfig struct {
	// Driver is "sqlite3" (mattn/go-sqlite3) or "sqlite" (modernc.org/sqlite).
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// FeedConfig holds websocket settings for the activity feed.
type FeedConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:       8080,
		RequestTimeout: 30 * time.Second,
		Database: DatabaseConfig{
			Driver: "sqlite3",
			URL:    "file:mission_control.db?cache=shared&mode=rwc",
		},
		ModelOverride:      "kimi-k2.5",
		DefaultOrigin:      "kimi",
		DefaultDestination: "anton",
		Feed: FeedConfig{
			PingInterval:   30 * time.Second,
			WriteTimeout:   10 * time.Second,
			ReadTimeout:    60 * time.Second,
			MaxMessageSize: 4096,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnvInt("HTTP_PORT", c.HTTPPort)
	c.RequestTimeout = getEnvDurationMs("REQUEST_TIMEOUT_MS", c.RequestTimeout)
	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.PolicyFile = getEnv("POLICY_FILE", c.PolicyFile)
	c.ModelOverride = getEnv("MODEL_OVERRIDE", c.ModelOverride)
	c.DefaultOrigin = getEnv("ESCALATION_DEFAULT_ORIGIN", c.DefaultOrigin)
	c.DefaultDestination = getEnv("ESCALATION_DEFAULT_DESTINATION", c.DefaultDestination)
	c.Feed.PingInterval = getEnvDurationMs("FEED_PING_INTERVAL_MS", c.Feed.PingInterval)
	c.Feed.WriteTimeout = getEnvDurationMs("FEED_WRITE_TIMEOUT_MS", c.Feed.WriteTimeout)
	c.Feed.ReadTimeout = getEnvDurationMs("FEED_READ_TIMEOUT_MS", c.Feed.ReadTimeout)
	c.Feed.MaxMessageSize = int64(getEnvInt("FEED_MAX_MESSAGE_SIZE", int(c.Feed.MaxMessageSize)))
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.HTTPPort)
	}
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (valid: sqlite3, sqlite)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if c.ModelOverride == "" {
		return fmt.Errorf("model_override is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
