package cache

import (
	"context"

	"go.uber.org/zap"
)

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// CacheService is the key/value surface the Gate reads and writes through.
// Values are opaque serialized payloads; the caller owns the encoding.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// Gate is the read-through front of a CacheService. Backend failures never
// reach the caller: a failed lookup is a miss and a failed write is dropped.
type Gate struct {
	service CacheService
	logger  *zap.Logger
}

// NewGate wraps service. A nil logger discards output.
func NewGate(service CacheService, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{service: service, logger: logger}
}

// Lookup returns the cached payload for key, if any.
func (g *Gate) Lookup(ctx context.Context, key string) ([]byte, bool) {
	if g == nil || g.service == nil {
		return nil, false
	}

	value, ok, err := g.service.Get(ctx, key)
	if err != nil {
		g.logger.Warn("cache lookup failed, falling back to store",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, ok
}

// Store writes value under key. Errors are logged and swallowed.
func (g *Gate) Store(ctx context.Context, key string, value []byte) {
	if g == nil || g.service == nil {
		return
	}

	if err := g.service.Set(ctx, key, value); err != nil {
		g.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys.
func (g *Gate) Invalidate(ctx context.Context, keys []string) {
	if g == nil || g.service == nil || len(keys) == 0 {
		return
	}

	if err := g.service.InvalidateKeys(ctx, keys); err != nil {
		g.logger.Warn("cache invalidation failed", zap.Int("keys", len(keys)), zap.Error(err))
	}
}

// InvalidatePrefix drops every key starting with prefix.
func (g *Gate) InvalidatePrefix(ctx context.Context, prefix string) {
	if g == nil || g.service == nil {
		return
	}

	if err := g.service.DeleteByPrefix(ctx, prefix); err != nil {
		g.logger.Warn("cache prefix invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
