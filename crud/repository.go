package crud

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-crud-admin/internal/storage"
)

// Store is the part of the repository the engine reads and writes through.
type Store[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
	Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error)
	Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error)
	Replace(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, record T) error
}

// Repository is the go-repository-bun repository of one entity. Write errors
// are classified the same way the library classifies read errors.
type Repository[T Model] struct {
	repository.Repository[T]
	db     *bun.DB
	driver string
}

// NewRepository builds the go-repository-bun repository for schema.
func NewRepository[T Model](db *bun.DB, schema Schema[T]) *Repository[T] {
	repo := repository.NewRepository[T](db, repository.ModelHandlers[T]{
		NewRecord: schema.New,
		GetID: func(record T) uuid.UUID {
			return record.GetID()
		},
		SetID: func(record T, id uuid.UUID) {
			record.SetID(id)
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &Repository[T]{
		Repository: repo,
		db:         db,
		driver:     repository.DetectDriver(db),
	}
}

// Create inserts record.
func (r *Repository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	created, err := r.Repository.Create(ctx, record, criteria...)
	return created, r.mapError(err)
}

// Replace writes every column of record except created_at. Unlike Update it
// keeps zero values, so a patch can clear a field.
func (r *Repository[T]) Replace(ctx context.Context, record T) (T, error) {
	var zero T

	res, err := r.db.NewUpdate().
		Model(record).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return zero, r.mapError(err)
	}
	if err := repository.SQLExpectedCount(res, 1); err != nil {
		return zero, err
	}
	return record, nil
}

// Delete removes record.
func (r *Repository[T]) Delete(ctx context.Context, record T) error {
	return r.mapError(r.Repository.Delete(ctx, record))
}

func (r *Repository[T]) mapError(err error) error {
	return storage.MapError(err, r.driver)
}
