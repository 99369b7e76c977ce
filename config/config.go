// Package config loads application settings from TODO_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zeinputraa/simple-todo-app/modules/storage"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TODO"

// Config holds application configuration.
type Config struct {
	// HTTPPort is the port the API listens on (default: 3000)
	HTTPPort int

	// StorageBackend selects the key-value facility: jetstream, sqlite, redis or postgres
	StorageBackend string

	// JetStreamDir is where the embedded NATS server keeps JetStream files
	JetStreamDir string

	// KVBucket is the kv-jetstream bucket holding todo keys
	KVBucket string

	// SQLitePath is the database file for the sqlite backend
	SQLitePath string

	// SQLDebug enables GORM query logging
	SQLDebug bool

	// RedisAddr is the Redis server address (e.g., "localhost:6379")
	RedisAddr string

	// RedisPrefix namespaces Redis keys (default: "todo:")
	RedisPrefix string

	// DatabaseURL is the PostgreSQL connection string for the postgres backend
	DatabaseURL string

	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// LogFormat is text or json
	LogFormat string

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HTTPPort:        3000,
		StorageBackend:  string(storage.BackendJetStream),
		JetStreamDir:    "./data/jetstream",
		KVBucket:        "todos",
		SQLitePath:      "todos.db",
		SQLDebug:        false,
		RedisAddr:       "localhost:6379",
		RedisPrefix:     "todo:",
		DatabaseURL:     "",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithHTTPPort sets the API port.
func WithHTTPPort(port int) Option {
	return func(c *Config) {
		c.HTTPPort = port
	}
}

// WithStorageBackend selects the key-value facility.
func WithStorageBackend(backend string) Option {
	return func(c *Config) {
		c.StorageBackend = backend
	}
}

// WithSQLitePath sets the SQLite database file.
func WithSQLitePath(path string) Option {
	return func(c *Config) {
		c.SQLitePath = path
	}
}

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

// WithDatabaseURL sets the PostgreSQL connection string.
func WithDatabaseURL(url string) Option {
	return func(c *Config) {
		c.DatabaseURL = url
	}
}

// WithJetStreamDir sets the JetStream storage directory.
func WithJetStreamDir(dir string) Option {
	return func(c *Config) {
		c.JetStreamDir = dir
	}
}

// Load reads TODO_* environment variables over the defaults, then applies opts.
func Load(opts ...Option) (Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", def.HTTPPort)
	v.SetDefault("storage_backend", def.StorageBackend)
	v.SetDefault("jetstream_dir", def.JetStreamDir)
	v.SetDefault("kv_bucket", def.KVBucket)
	v.SetDefault("sqlite_path", def.SQLitePath)
	v.SetDefault("sql_debug", def.SQLDebug)
	v.SetDefault("redis_addr", def.RedisAddr)
	v.SetDefault("redis_prefix", def.RedisPrefix)
	v.SetDefault("database_url", def.DatabaseURL)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("shutdown_timeout", def.ShutdownTimeout)

	cfg := Config{
		HTTPPort:        v.GetInt("http_port"),
		StorageBackend:  strings.ToLower(v.GetString("storage_backend")),
		JetStreamDir:    v.GetString("jetstream_dir"),
		KVBucket:        v.GetString("kv_bucket"),
		SQLitePath:      v.GetString("sqlite_path"),
		SQLDebug:        v.GetBool("sql_debug"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPrefix:     v.GetString("redis_prefix"),
		DatabaseURL:     v.GetString("database_url"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}

	backend, err := storage.ParseBackend(c.StorageBackend)
	if err != nil {
		return err
	}

	switch backend {
	case storage.BackendJetStream:
		if c.KVBucket == "" {
			return fmt.Errorf("kv bucket is required for the jetstream backend")
		}
	case storage.BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite backend")
		}
	case storage.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case storage.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url is required for the postgres backend")
		}
	}
	return nil
}

// Backend returns the parsed storage backend. Call after Validate.
func (c Config) Backend() storage.Backend {
	return storage.Backend(c.StorageBackend)
}

// StorageOptions returns the options for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.Backend(),
		SQLitePath:  c.SQLitePath,
		SQLDebug:    c.SQLDebug,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
		DatabaseURL: c.DatabaseURL,
	}
}
