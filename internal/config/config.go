// Package config loads and validates the crud-admin TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-crud-admin/cache"
	"github.com/goliatone/go-crud-admin/crud"
	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/query"
)

// Duration decodes TOML strings such as "30s" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type Database struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	// AutoMigrate creates missing tables when the server starts.
	AutoMigrate bool `toml:"auto_migrate"`
}

type Cache struct {
	Capacity           int      `toml:"capacity"`
	NumShards          int      `toml:"num_shards"`
	TTL                Duration `toml:"ttl"`
	EvictionPercentage int      `toml:"eviction_percentage"`
	EvictionInterval   Duration `toml:"eviction_interval"`
	MaxEntryBytes      int      `toml:"max_entry_bytes"`
}

type Engine struct {
	DefaultLimit    int `toml:"default_limit"`
	MaxLimit        int `toml:"max_limit"`
	MaxBatchSize    int `toml:"max_batch_size"`
	BulkConcurrency int `toml:"bulk_concurrency"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Config mirrors the crud-admin TOML schema.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Cache    Cache    `toml:"cache"`
	Engine   Engine   `toml:"engine"`
	Log      Log      `toml:"log"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Default returns a configuration that runs against an in-memory store.
func Default() Config {
	cc := cache.DefaultConfig()
	opts := crud.DefaultOptions()

	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{10 * time.Second},
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Database: Database{
			Driver:      storage.DriverSQLite,
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Cache: Cache{
			Capacity:           cc.Capacity,
			NumShards:          cc.NumShards,
			TTL:                Duration{cc.TTL},
			EvictionPercentage: cc.EvictionPercentage,
			EvictionInterval:   Duration{cc.EvictionInterval},
			MaxEntryBytes:      cc.MaxEntryBytes,
		},
		Engine: Engine{
			DefaultLimit:    query.DefaultLimit,
			MaxLimit:        query.MaxLimit,
			MaxBatchSize:    opts.MaxBatchSize,
			BulkConcurrency: opts.BulkConcurrency,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders c as TOML, the inverse of Parse.
func Encode(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return &ConfigError{Field: "server.addr", Message: "must not be empty"}
	}

	switch c.Database.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return &ConfigError{Field: "database.driver", Message: fmt.Sprintf("unsupported driver %q", c.Database.Driver)}
	}
	if c.Database.Driver == storage.DriverPostgres && c.Database.DSN == "" {
		return &ConfigError{Field: "database.dsn", Message: "required for postgres"}
	}

	if err := c.CacheConfig().Validate(); err != nil {
		var ce *cache.ConfigError
		if errors.As(err, &ce) {
			return &ConfigError{Field: "cache." + ce.Field, Message: ce.Message}
		}
		return err
	}

	if c.Engine.DefaultLimit < 1 || c.Engine.MaxLimit < c.Engine.DefaultLimit {
		return &ConfigError{Field: "engine.default_limit", Message: "must be between 1 and max_limit"}
	}
	if c.Engine.MaxBatchSize < 1 {
		return &ConfigError{Field: "engine.max_batch_size", Message: "must be greater than 0"}
	}
	if c.Engine.BulkConcurrency < 1 {
		return &ConfigError{Field: "engine.bulk_concurrency", Message: "must be greater than 0"}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}

	return nil
}

// CacheConfig converts the cache section for cache.NewCacheService.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:           c.Cache.Capacity,
		NumShards:          c.Cache.NumShards,
		TTL:                c.Cache.TTL.Duration,
		EvictionPercentage: c.Cache.EvictionPercentage,
		EvictionInterval:   c.Cache.EvictionInterval.Duration,
		MaxEntryBytes:      c.Cache.MaxEntryBytes,
	}
}

// EngineOptions converts the engine section for crud.NewEngine.
func (c Config) EngineOptions() crud.Options {
	return crud.Options{
		MaxBatchSize:    c.Engine.MaxBatchSize,
		BulkConcurrency: c.Engine.BulkConcurrency,
	}
}

// StorageOptions converts the database pool settings for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
	}
}
