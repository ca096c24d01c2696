package crud

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-crud-admin/query"
)

// Model is the contract every persisted record satisfies. Identifier and
// timestamps belong to the store; Validate and ApplyDefaults belong to the
// entity.
type Model interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
	Validate() error
	ApplyDefaults()
}

// UniqueKey is a secondary natural key that must not repeat across records.
// Empty values are not checked.
type UniqueKey[T any] struct {
	// Field is the JSON name reported back on conflict.
	Field  string
	Column string
	Value  func(T) string
}

// Schema describes one entity type to the generic engine.
type Schema[T Model] struct {
	// Name is the singular entity name used in messages, e.g. "product".
	Name string
	// Table is the store table backing the entity.
	Table string
	// Query declares the searchable, filterable and sortable fields.
	Query query.Spec
	// Fields are the JSON fields a caller may set.
	Fields []string
	Unique []UniqueKey[T]
	New    func() T
}

// immutableFields are owned by the store and never accepted in a patch.
var immutableFields = map[string]struct{}{
	"id":        {},
	"_id":       {},
	"createdAt": {},
	"updatedAt": {},
}

func (s Schema[T]) allows(field string) bool {
	for _, f := range s.Fields {
		if f == field {
			return true
		}
	}
	return false
}
