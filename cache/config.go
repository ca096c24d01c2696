package cache

import (
	"github.com/goliatone/go-crud-admin/internal/cacheinfra"
)

// Config sizes the default cache backend. See cacheinfra.Config for the
// meaning of each field.
type Config = cacheinfra.Config

// ConfigError names the [cache] key that failed validation.
type ConfigError = cacheinfra.ConfigError

// ErrEntryTooLarge is returned by the default backend for pages above
// Config.MaxEntryBytes. The Gate treats it like any other store failure.
var ErrEntryTooLarge = cacheinfra.ErrEntryTooLarge

// DefaultConfig returns the default backend sizing.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// NewCacheService builds the sturdyc-backed CacheService.
func NewCacheService(cfg Config) (CacheService, error) {
	svc, err := cacheinfra.NewSturdycService(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
