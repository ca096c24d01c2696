package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// ErrEntryTooLarge is returned by Set when a payload exceeds MaxEntryBytes.
var ErrEntryTooLarge = errors.New("cache entry exceeds size limit")

// Config sizes the in-process page cache.
type Config struct {
	// Capacity is the maximum number of cached pages across all shards.
	Capacity int

	// NumShards splits the cache to reduce lock contention between
	// concurrent list requests.
	NumShards int

	// TTL bounds how long a list page may be served after the store changed
	// underneath it without a write going through the engine.
	TTL time.Duration

	// EvictionPercentage is the share of entries dropped when a shard is full.
	EvictionPercentage int

	// EvictionInterval sets how often expired pages are swept. Zero keeps
	// the sturdyc default.
	EvictionInterval time.Duration

	// MaxEntryBytes rejects encoded pages larger than this. Zero means no bound.
	MaxEntryBytes int
}

// DefaultConfig returns a cache sized for the admin list pages.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                30 * time.Second,
		EvictionPercentage: 10,
		MaxEntryBytes:      1 << 20,
	}
}

// Validate reports the first invalid value. Field names match the keys of
// the [cache] configuration section.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return &ConfigError{Field: "capacity", Message: "must be greater than 0"}
	case c.NumShards <= 0:
		return &ConfigError{Field: "num_shards", Message: "must be greater than 0"}
	case c.NumShards > c.Capacity:
		return &ConfigError{Field: "num_shards", Message: fmt.Sprintf("must not exceed capacity (%d)", c.Capacity)}
	case c.TTL <= 0:
		return &ConfigError{Field: "ttl", Message: "must be greater than 0"}
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return &ConfigError{Field: "eviction_percentage", Message: "must be between 1 and 100"}
	case c.EvictionInterval < 0:
		return &ConfigError{Field: "eviction_interval", Message: "must be non-negative"}
	case c.MaxEntryBytes < 0:
		return &ConfigError{Field: "max_entry_bytes", Message: "must be non-negative"}
	}
	return nil
}

func (c Config) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycService stores encoded list pages in a sturdyc client. Values are
// copied on the way in and out so callers never share a backing array with
// the cache.
type SturdycService struct {
	client   *sturdyc.Client[[]byte]
	maxEntry int
}

// NewSturdycService validates cfg and starts a sturdyc client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)

	return &SturdycService{client: client, maxEntry: cfg.MaxEntryBytes}, nil
}

// Get returns a copy of the value stored under key.
func (s *SturdycService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under key. Values over the size limit are
// rejected with ErrEntryTooLarge.
func (s *SturdycService) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxEntry > 0 && len(value) > s.maxEntry {
		// drop any older copy so a stale page is not served in its place
		s.client.Delete(key)
		return fmt.Errorf("%s: %d bytes, limit %d: %w", key, len(value), s.maxEntry, ErrEntryTooLarge)
	}

	s.client.Set(key, append([]byte(nil), value...))
	return nil
}

// Delete drops key.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix scans the live keys, so it costs O(size). Engines only use
// it for an explicit purge.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys drops every key in keys.
func (s *SturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Size reports the number of live entries.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
