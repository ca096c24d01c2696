package entity

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-crud-admin/crud"
	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/query"
)

// Clot roles.
const (
	ClotRoleSelect    = "select"
	ClotRoleAdmin     = "admin"
	ClotRoleModerator = "moderator"
)

// Clot is the template record that new admin resources are cloned from.
type Clot struct {
	bun.BaseModel `bun:"table:clots,alias:clt"`
	Base

	Name         string   `bun:"name,notnull" json:"name"`
	DataArr      []string `bun:"data_arr" json:"dataArr"`
	Email        string   `bun:"email,notnull" json:"email"`
	PassCode     string   `bun:"pass_code,notnull" json:"passCode"`
	Alias        string   `bun:"alias,notnull" json:"alias"`
	Role         string   `bun:"role,notnull" json:"role"`
	Images       []string `bun:"images" json:"images"`
	Descriptions string   `bun:"descriptions,notnull,default:''" json:"descriptions"`
}

func (c *Clot) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.PassCode, validation.Required),
		validation.Field(&c.Alias, validation.Required),
		validation.Field(&c.Role, validation.Required,
			validation.In(ClotRoleSelect, ClotRoleAdmin, ClotRoleModerator)),
	)
}

func (c *Clot) ApplyDefaults() {
	c.Email = strings.ToLower(trim(c.Email))
	if c.Role == "" {
		c.Role = ClotRoleSelect
	}
	c.DataArr = stringsOrEmpty(c.DataArr)
	c.Images = stringsOrEmpty(c.Images)
}

// ClotSchema describes clots to the crud engine.
func ClotSchema() crud.Schema[*Clot] {
	return crud.Schema[*Clot]{
		Name:  "clot",
		Table: "clots",
		Query: query.Spec{
			Searchable: []string{"name", "email", "alias"},
			Filters: map[string]query.FilterSpec{
				"role": {Column: "role", Kind: query.FilterEquality},
			},
			Sortable: map[string]string{"name": "name", "email": "email"},
		},
		Fields: []string{"name", "dataArr", "email", "passCode", "alias", "role", "images", "descriptions"},
		Unique: []crud.UniqueKey[*Clot]{
			{Field: "email", Column: "email", Value: func(c *Clot) string { return c.Email }},
		},
		New: func() *Clot { return &Clot{} },
	}
}

// ClotTable is the migration descriptor for clots.
func ClotTable() storage.Table {
	return storage.Table{
		Name:    "clots",
		Model:   (*Clot)(nil),
		Indexes: []storage.Index{{Column: "email", Unique: true}},
	}
}
