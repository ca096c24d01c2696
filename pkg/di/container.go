package di

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/cache"
	"github.com/goliatone/go-crud-admin/crud"
	"github.com/goliatone/go-crud-admin/entity"
	"github.com/goliatone/go-crud-admin/internal/config"
	"github.com/goliatone/go-crud-admin/internal/httpapi"
	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/repositorycache"
)

// Container owns the shared dependencies of the admin backend: the store
// handle, the cache service and its gate, and the key serializer. Engines
// are built from it with NewEngine.
type Container struct {
	config        config.Config
	logger        *zap.Logger
	db            *bun.DB
	cacheService  cache.CacheService
	gate          *cache.Gate
	keySerializer cache.KeySerializer
}

// NewContainer opens the store and builds the cache described by cfg. The
// caller must Close the container.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.StorageOptions())
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, db, entity.Tables()...); err != nil {
			db.Close()
			return nil, err
		}
	}

	// The cache starts an eviction goroutine, so it is built once the store
	// is known to be usable.
	cacheService, err := cache.NewCacheService(cfg.CacheConfig())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache service: %w", err)
	}

	return &Container{
		config:        cfg,
		logger:        logger,
		db:            db,
		cacheService:  cacheService,
		gate:          cache.NewGate(cacheService, logger.Named("cache")),
		keySerializer: cache.NewHashedKeySerializer(),
	}, nil
}

// NewContainerWithDefaults builds a container over a migrated in-memory store.
func NewContainerWithDefaults(ctx context.Context) (*Container, error) {
	return NewContainer(ctx, config.Default(), nil)
}

// Migrate creates the entity tables and indexes.
func (c *Container) Migrate(ctx context.Context) error {
	return storage.Migrate(ctx, c.db, entity.Tables()...)
}

// Close releases the store handle.
func (c *Container) Close() error {
	return c.db.Close()
}

// DB returns the store handle shared by every engine.
func (c *Container) DB() *bun.DB {
	return c.db
}

// CacheService returns the cache backend behind the gate.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// Gate returns the cache gate shared by every lister.
func (c *Container) Gate() *cache.Gate {
	return c.gate
}

// KeySerializer returns the serializer used for list cache keys.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() config.Config {
	return c.config
}

// NewEngine builds the engine for schema over the container's store and
// cache. List keys are namespaced by the schema's table.
//
// Since Go methods cannot have type parameters, this is a package-level function.
// Example: NewEngine(container, entity.ProductSchema())
func NewEngine[T crud.Model](c *Container, schema crud.Schema[T]) *crud.Engine[T] {
	if schema.Query.DefaultLimit == 0 {
		schema.Query.DefaultLimit = c.config.Engine.DefaultLimit
	}
	if schema.Query.MaxLimit == 0 {
		schema.Query.MaxLimit = c.config.Engine.MaxLimit
	}

	logger := c.logger.Named(schema.Name)
	repo := crud.NewRepository(c.db, schema)
	lister := repositorycache.New[T](repo, c.gate, c.keySerializer,
		repositorycache.WithNamespace(schema.Table),
		repositorycache.WithLogger(logger))

	return crud.NewEngine(schema, repo, lister, logger, c.config.EngineOptions())
}

// Router mounts every entity resource and the health check.
func (c *Container) Router() *mux.Router {
	r := httpapi.NewRouter(c.logger.Named("http"), c.db)
	httpapi.Register(r, NewEngine(c, entity.CategorySchema()), c.logger)
	httpapi.Register(r, NewEngine(c, entity.ProductSchema()), c.logger)
	httpapi.Register(r, NewEngine(c, entity.ClotSchema()), c.logger)
	httpapi.Register(r, NewEngine(c, entity.UserSchema()), c.logger)
	return r
}
