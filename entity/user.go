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

// User roles.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	Base

	Name     string   `bun:"name,notnull" json:"name"`
	Email    string   `bun:"email,notnull" json:"email"`
	Alias    string   `bun:"alias,notnull,default:''" json:"alias"`
	UserRole []string `bun:"user_role" json:"userRole"`
}

func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Email, validation.Required, is.Email),
		validation.Field(&u.UserRole,
			validation.Each(validation.Required, validation.In(RoleUser, RoleAdmin, RoleModerator))),
	)
}

func (u *User) ApplyDefaults() {
	u.Name = trim(u.Name)
	u.Email = strings.ToLower(trim(u.Email))
	if len(u.UserRole) == 0 {
		u.UserRole = []string{RoleUser}
	}
}

// UserSchema describes users to the crud engine.
func UserSchema() crud.Schema[*User] {
	return crud.Schema[*User]{
		Name:  "user",
		Table: "users",
		Query: query.Spec{
			Searchable: []string{"name", "email", "alias"},
			Sortable:   map[string]string{"name": "name", "email": "email"},
		},
		Fields: []string{"name", "email", "alias", "userRole"},
		Unique: []crud.UniqueKey[*User]{
			{Field: "email", Column: "email", Value: func(u *User) string { return u.Email }},
		},
		New: func() *User { return &User{} },
	}
}

// UserTable is the migration descriptor for users.
func UserTable() storage.Table {
	return storage.Table{
		Name:    "users",
		Model:   (*User)(nil),
		Indexes: []storage.Index{{Column: "email", Unique: true}},
	}
}

// Tables lists every table the admin backend owns, in creation order.
func Tables() []storage.Table {
	return []storage.Table{CategoryTable(), ProductTable(), ClotTable(), UserTable()}
}
