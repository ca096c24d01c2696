// Package entity holds the records managed by the admin backend and the
// schemas that describe them to the crud engine.
package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Base carries the store-owned columns shared by every record.
type Base struct {
	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*Base)(nil)

// BeforeAppendModel assigns the identifier on insert and stamps timestamps.
func (b *Base) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()

	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		b.CreatedAt = now
		b.UpdatedAt = now
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

func (b *Base) GetID() uuid.UUID {
	return b.ID
}

func (b *Base) SetID(id uuid.UUID) {
	b.ID = id
}

// stringsOrEmpty keeps JSON arrays from encoding as null.
func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
