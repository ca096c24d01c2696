package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Index is a secondary index created alongside a table.
type Index struct {
	Column string
	Unique bool
	// Where makes the index partial, e.g. "product_uid <> ''".
	Where string
}

// Name follows <table>_<column>_<kind>; UniqueColumn relies on it.
func (i Index) Name(table string) string {
	kind := "idx"
	if i.Unique {
		kind = "unique"
	}
	return fmt.Sprintf("%s_%s_%s", table, i.Column, kind)
}

// Table pairs a bun model with its indexes.
type Table struct {
	Name    string
	Model   any
	Indexes []Index
}

// Migrate creates every table and index that does not exist yet.
func Migrate(ctx context.Context, db bun.IDB, tables ...Table) error {
	for _, t := range tables {
		if _, err := db.NewCreateTable().Model(t.Model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}

		for _, idx := range t.Indexes {
			q := db.NewCreateIndex().
				Model(t.Model).
				Index(idx.Name(t.Name)).
				Column(idx.Column).
				IfNotExists()
			if idx.Unique {
				q = q.Unique()
			}
			if idx.Where != "" {
				q = q.Where(idx.Where)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("create index %s: %w", idx.Name(t.Name), err)
			}
		}
	}
	return nil
}
