package entity

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-crud-admin/crud"
	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/query"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	Base

	Name        string   `bun:"name,notnull" json:"name"`
	SubCategory []string `bun:"sub_category" json:"subCategory"`
}

func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
	)
}

func (c *Category) ApplyDefaults() {
	c.SubCategory = stringsOrEmpty(c.SubCategory)
}

// CategorySchema describes categories to the crud engine.
func CategorySchema() crud.Schema[*Category] {
	return crud.Schema[*Category]{
		Name:  "category",
		Table: "categories",
		Query: query.Spec{
			Searchable: []string{"name"},
			Sortable:   map[string]string{"name": "name"},
		},
		Fields: []string{"name", "subCategory"},
		New:    func() *Category { return &Category{} },
	}
}

// CategoryTable is the migration descriptor for categories.
func CategoryTable() storage.Table {
	return storage.Table{
		Name:    "categories",
		Model:   (*Category)(nil),
		Indexes: []storage.Index{{Column: "name"}},
	}
}
