package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/query"
	"github.com/goliatone/go-crud-admin/repositorycache"
)

// Options tune the engine's bulk behaviour.
type Options struct {
	// MaxBatchSize caps the number of items in one bulk request.
	MaxBatchSize int
	// BulkConcurrency bounds the item operations in flight per bulk request.
	BulkConcurrency int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{MaxBatchSize: 100, BulkConcurrency: 8}
}

// Engine is the CRUD surface of one entity type. It holds no per-request
// state: every call works against the repository and the cached lister.
type Engine[T Model] struct {
	schema Schema[T]
	repo   Store[T]
	lister *repositorycache.CachedLister[T]
	logger *zap.Logger
	opts   Options
}

// NewEngine wires an engine for schema. A zero Options value uses defaults.
func NewEngine[T Model](schema Schema[T], repo Store[T], lister *repositorycache.CachedLister[T], logger *zap.Logger, opts Options) *Engine[T] {
	defaults := DefaultOptions()
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = defaults.MaxBatchSize
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = defaults.BulkConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine[T]{
		schema: schema,
		repo:   repo,
		lister: lister,
		logger: logger.With(zap.String("entity", schema.Name)),
		opts:   opts,
	}
}

// Schema returns the descriptor the engine was built with.
func (e *Engine[T]) Schema() Schema[T] {
	return e.schema
}

// ParseParams validates list parameters against the entity's query spec.
func (e *Engine[T]) ParseParams(values map[string][]string) (query.Params, error) {
	return query.ParseValues(values, e.schema.Query)
}

// List returns one page of matching records, from cache when possible.
func (e *Engine[T]) List(ctx context.Context, params query.Params) (repositorycache.Page[T], error) {
	page, err := e.lister.List(ctx, e.schema.Query, params)
	if err != nil {
		e.logger.Error("list failed", zap.Error(err))
		return page, &StoreError{Op: "list", Err: err}
	}
	return page, nil
}

// Get reads a record straight from the store.
func (e *Engine[T]) Get(ctx context.Context, rawID string) (T, error) {
	var zero T

	id, err := e.parseID(rawID)
	if err != nil {
		return zero, err
	}
	return e.find(ctx, id)
}

// Create validates and persists record. The store assigns the identifier and
// both timestamps.
func (e *Engine[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	record.SetID(uuid.Nil)
	record.ApplyDefaults()

	if err := record.Validate(); err != nil {
		return zero, newValidationError(e.schema.Name, err)
	}
	if err := e.checkUnique(ctx, record, uuid.Nil); err != nil {
		return zero, err
	}

	created, err := e.repo.Create(ctx, record)
	if err != nil {
		return zero, e.writeError("create", err)
	}

	e.lister.Invalidate(ctx)
	e.logger.Debug("record created", zap.Stringer("id", created.GetID()))
	return created, nil
}

// Update applies fields to the record identified by rawID.
func (e *Engine[T]) Update(ctx context.Context, rawID string, fields map[string]any) (T, error) {
	updated, err := e.update(ctx, rawID, fields)
	if err != nil {
		var zero T
		return zero, err
	}

	e.lister.Invalidate(ctx)
	return updated, nil
}

// Delete removes the record identified by rawID.
func (e *Engine[T]) Delete(ctx context.Context, rawID string) error {
	id, err := e.parseID(rawID)
	if err != nil {
		return err
	}
	if err := e.delete(ctx, id); err != nil {
		return err
	}

	e.lister.Invalidate(ctx)
	return nil
}

// InvalidateCache drops every cached page of this entity.
func (e *Engine[T]) InvalidateCache(ctx context.Context) {
	e.lister.Purge(ctx)
}

func (e *Engine[T]) update(ctx context.Context, rawID string, fields map[string]any) (T, error) {
	var zero T

	id, err := e.parseID(rawID)
	if err != nil {
		return zero, err
	}
	if len(fields) == 0 {
		return zero, &ValidationError{Entity: e.schema.Name, Err: errors.New("no fields to update")}
	}

	current, err := e.find(ctx, id)
	if err != nil {
		return zero, err
	}

	patched, err := e.applyPatch(current, fields)
	if err != nil {
		return zero, err
	}
	patched.ApplyDefaults()
	if err := patched.Validate(); err != nil {
		return zero, newValidationError(e.schema.Name, err)
	}
	if err := e.checkUnique(ctx, patched, id); err != nil {
		return zero, err
	}

	if _, err := e.repo.Replace(ctx, patched); err != nil {
		if repository.IsRecordNotFound(err) || repository.IsSQLExpectedCountViolation(err) {
			return zero, fmt.Errorf("%s %s: %w", e.schema.Name, id, ErrNotFound)
		}
		return zero, e.writeError("update", err)
	}

	return e.find(ctx, id)
}

func (e *Engine[T]) delete(ctx context.Context, id uuid.UUID) error {
	record, err := e.find(ctx, id)
	if err != nil {
		return err
	}
	if err := e.repo.Delete(ctx, record); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (e *Engine[T]) parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s id %q: %w", e.schema.Name, raw, ErrInvalidID)
	}
	return id, nil
}

func (e *Engine[T]) find(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T

	record, err := e.repo.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return zero, fmt.Errorf("%s %s: %w", e.schema.Name, id, ErrNotFound)
		}
		return zero, &StoreError{Op: "find", Err: err}
	}
	return record, nil
}

func (e *Engine[T]) checkUnique(ctx context.Context, record T, self uuid.UUID) error {
	for _, key := range e.schema.Unique {
		value := key.Value(record)
		if value == "" {
			continue
		}

		count, err := e.repo.Count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("? = ?", bun.Ident(key.Column), value).
				Where("? <> ?", bun.Ident("id"), self)
		})
		if err != nil {
			return &StoreError{Op: "unique check", Err: err}
		}
		if count > 0 {
			return &ConflictError{Entity: e.schema.Name, Field: key.Field, Value: value}
		}
	}
	return nil
}

// writeError classifies a failed insert or update. Unique index violations
// that slipped past checkUnique (concurrent writers) become conflicts.
func (e *Engine[T]) writeError(op string, err error) error {
	if !repository.IsDuplicatedKey(err) {
		return &StoreError{Op: op, Err: err}
	}

	conflict := &ConflictError{Entity: e.schema.Name, Err: err}
	column := storage.UniqueColumn(err, e.schema.Table)
	for _, key := range e.schema.Unique {
		if key.Column == column {
			conflict.Field = key.Field
		}
	}
	return conflict
}

// applyPatch overlays fields on a copy of current. Only declared fields are
// accepted; values must decode into the field's type.
func (e *Engine[T]) applyPatch(current T, fields map[string]any) (T, error) {
	var zero T

	for field := range fields {
		if _, ok := immutableFields[field]; ok {
			return zero, fieldError(e.schema.Name, field, "cannot be changed")
		}
		if !e.schema.allows(field) {
			return zero, fieldError(e.schema.Name, field, "unknown field")
		}
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", e.schema.Name, err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return zero, fmt.Errorf("decode %s: %w", e.schema.Name, err)
	}
	for field, value := range fields {
		doc[field] = value
	}

	raw, err = json.Marshal(doc)
	if err != nil {
		return zero, &ValidationError{Entity: e.schema.Name, Err: err}
	}

	next := e.schema.New()
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(next); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return zero, fieldError(e.schema.Name, typeErr.Field, "must be of type "+typeErr.Type.String())
		}
		return zero, &ValidationError{Entity: e.schema.Name, Err: err}
	}
	return next, nil
}
