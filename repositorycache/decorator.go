package repositorycache

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/cache"
	"github.com/goliatone/go-crud-admin/query"
)

// Source tells where a page was served from.
type Source string

const (
	SourceCache Source = "cache"
	SourceDB    Source = "db"
)

// Lister is the part of repository.Repository[T] the list engine reads through.
type Lister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

// Page is one window of a filtered, sorted list.
type Page[T any] struct {
	Records []T    `json:"records"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Source  Source `json:"source"`
}

// listPayload is the cached unit: the window and the filter-wide total.
type listPayload[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
}

// CachedLister serves list pages through a cache gate. It holds no request
// state; the key registry only remembers which keys to drop on invalidation.
type CachedLister[T any] struct {
	base          Lister[T]
	gate          *cache.Gate
	keySerializer cache.KeySerializer
	namespace     string
	keyRegistry   *xsync.MapOf[string, struct{}]
	logger        *zap.Logger

	// generation moves on every Invalidate or Purge. A page read from the
	// store under an older generation is not left in the cache.
	generation atomic.Uint64
}

// Option customizes a CachedLister.
type Option func(*options)

type options struct {
	namespace string
	logger    *zap.Logger
}

// WithNamespace overrides the key namespace derived from T.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithLogger sets the logger used for cache decode failures and timings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a CachedLister reading from base.
func New[T any](base Lister[T], gate *cache.Gate, keySerializer cache.KeySerializer, opts ...Option) *CachedLister[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.namespace == "" {
		o.namespace = namespaceFor[T]()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if keySerializer == nil {
		keySerializer = cache.NewHashedKeySerializer()
	}

	return &CachedLister[T]{
		base:          base,
		gate:          gate,
		keySerializer: keySerializer,
		namespace:     o.namespace,
		keyRegistry:   xsync.NewMapOf[string, struct{}](),
		logger:        o.logger.With(zap.String("namespace", o.namespace)),
	}
}

// Namespace returns the key prefix shared by every entry of this lister.
func (c *CachedLister[T]) Namespace() string {
	return c.namespace
}

// Key returns the cache key for params.
func (c *CachedLister[T]) Key(params query.Params) string {
	return c.keySerializer.SerializeKey(c.namespace+cache.KeySeparator+"List", params)
}

// List returns the page described by params. A cached payload is served as
// is; otherwise the store is queried, and the result cached only on success.
func (c *CachedLister[T]) List(ctx context.Context, spec query.Spec, params query.Params) (Page[T], error) {
	key := c.Key(params)

	if raw, ok := c.gate.Lookup(ctx, key); ok {
		payload, err := decodePayload[T](raw)
		if err == nil {
			return c.page(payload, params, SourceCache), nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}

	gen := c.generation.Load()
	start := time.Now()
	_, criteria := spec.Criteria(params)
	records, total, err := c.base.List(ctx, criteria...)
	if err != nil {
		return Page[T]{}, fmt.Errorf("list %s: %w", c.namespace, err)
	}
	if records == nil {
		records = []T{}
	}

	payload := listPayload[T]{Records: records, Total: total}
	if raw, err := encodePayload(payload); err != nil {
		c.logger.Warn("skipping cache write, encode failed", zap.String("key", key), zap.Error(err))
	} else {
		c.gate.Store(ctx, key, raw)
		c.trackKey(key)
		if c.generation.Load() != gen {
			// a write landed while the store was being read
			c.gate.Invalidate(ctx, []string{key})
		}
	}

	c.logger.Debug("list served from store",
		zap.Int("page", params.Page),
		zap.Int("limit", params.Limit),
		zap.Int("total", total),
		zap.Duration("took", time.Since(start)))

	return c.page(payload, params, SourceDB), nil
}

// Invalidate drops every page this lister has cached.
func (c *CachedLister[T]) Invalidate(ctx context.Context) {
	c.generation.Add(1)

	// Keys leave the registry before the cache so a page stored and tracked
	// by a concurrent read is never untracked after the fact.
	var keys []string
	c.keyRegistry.Range(func(key string, _ struct{}) bool {
		if _, ok := c.keyRegistry.LoadAndDelete(key); ok {
			keys = append(keys, key)
		}
		return true
	})

	c.gate.Invalidate(ctx, keys)
}

// Purge drops every cached entry under the namespace, including keys written
// by other listers sharing the backend.
func (c *CachedLister[T]) Purge(ctx context.Context) {
	c.generation.Add(1)
	c.keyRegistry.Clear()
	c.gate.InvalidatePrefix(ctx, c.namespace+cache.KeySeparator)
}

// TrackedKeys reports how many cached pages are registered for invalidation.
func (c *CachedLister[T]) TrackedKeys() int {
	return c.keyRegistry.Size()
}

func (c *CachedLister[T]) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})
}

func (c *CachedLister[T]) page(payload listPayload[T], params query.Params, source Source) Page[T] {
	records := payload.Records
	if records == nil {
		records = []T{}
	}
	return Page[T]{
		Records: records,
		Total:   payload.Total,
		Page:    params.Page,
		Limit:   params.Limit,
		Source:  source,
	}
}

func encodePayload[T any](payload listPayload[T]) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePayload[T any](raw []byte) (listPayload[T], error) {
	var payload listPayload[T]
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&payload); err != nil {
		return listPayload[T]{}, err
	}
	return payload, nil
}
