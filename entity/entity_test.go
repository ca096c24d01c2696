package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-crud-admin/crud"
)

var (
	_ crud.Model = (*Category)(nil)
	_ crud.Model = (*Product)(nil)
	_ crud.Model = (*Clot)(nil)
	_ crud.Model = (*User)(nil)
)

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func fieldErrors(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %T: %v", err, err)
	}
	out := make([]string, 0, len(verrs))
	for field := range verrs {
		out = append(out, field)
	}
	return out
}

func TestBase_BeforeAppendModel(t *testing.T) {
	ctx := context.Background()

	var b Base
	if err := b.BeforeAppendModel(ctx, &bun.InsertQuery{}); err != nil {
		t.Fatal(err)
	}
	if b.ID == uuid.Nil {
		t.Error("insert must assign an id")
	}
	if b.CreatedAt.IsZero() || !b.CreatedAt.Equal(b.UpdatedAt) {
		t.Errorf("insert timestamps = %v / %v", b.CreatedAt, b.UpdatedAt)
	}
	if b.CreatedAt.Location() != time.UTC {
		t.Errorf("timestamps must be UTC, got %v", b.CreatedAt.Location())
	}

	id, created := b.ID, b.CreatedAt
	time.Sleep(time.Millisecond)
	if err := b.BeforeAppendModel(ctx, &bun.UpdateQuery{}); err != nil {
		t.Fatal(err)
	}
	if b.ID != id || !b.CreatedAt.Equal(created) {
		t.Error("update must not touch id or createdAt")
	}
	if !b.UpdatedAt.After(created) {
		t.Error("update must advance updatedAt")
	}

	preset := Base{ID: uuid.New()}
	want := preset.ID
	_ = preset.BeforeAppendModel(ctx, &bun.InsertQuery{})
	if preset.ID != want {
		t.Error("insert must keep an id that is already set")
	}
}

func TestProduct_ValidateAndDefaults(t *testing.T) {
	p := &Product{Name: "  Mouse ", Category: " peripherals "}
	p.ApplyDefaults()

	if p.Name != "Mouse" || p.Category != "peripherals" {
		t.Errorf("text fields not trimmed: %q %q", p.Name, p.Category)
	}
	if p.ProductStatus != ProductComingSoon {
		t.Errorf("productStatus = %q", p.ProductStatus)
	}
	if p.Reviews == nil || p.PickupPoints == nil || p.Attributes == nil || p.ShopsInfo == nil {
		t.Error("collections must default to empty")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := &Product{ProductStatus: "archived", RealPrice: -1, DiscountPrice: -2, TotalSells: -3}
	got := fieldErrors(t, bad.Validate())
	want := []string{"discountPrice", "productStatus", "realPrice", "totalSells"}
	if diff := cmp.Diff(want, got, sortStrings); diff != "" {
		t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

func TestClot_ValidateAndDefaults(t *testing.T) {
	c := &Clot{Name: "n", Email: " Ops@Example.COM ", PassCode: "p", Alias: "a"}
	c.ApplyDefaults()

	if c.Role != ClotRoleSelect {
		t.Errorf("role = %q", c.Role)
	}
	if c.Email != "ops@example.com" {
		t.Errorf("email = %q", c.Email)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := &Clot{Email: "not-an-email", Role: "root"}
	got := fieldErrors(t, bad.Validate())
	want := []string{"alias", "email", "name", "passCode", "role"}
	if diff := cmp.Diff(want, got, sortStrings); diff != "" {
		t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

func TestUser_ValidateAndDefaults(t *testing.T) {
	u := &User{Name: "Ann", Email: "ann@example.com"}
	u.ApplyDefaults()
	if diff := cmp.Diff([]string{RoleUser}, u.UserRole); diff != "" {
		t.Errorf("userRole default mismatch (-want +got):\n%s", diff)
	}
	if err := u.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	tests := []struct {
		name string
		user User
		want []string
	}{
		{name: "missing name", user: User{Email: "a@example.com", UserRole: []string{RoleAdmin}}, want: []string{"name"}},
		{name: "bad email", user: User{Name: "a", Email: "nope", UserRole: []string{RoleUser}}, want: []string{"email"}},
		{name: "unknown role", user: User{Name: "a", Email: "a@example.com", UserRole: []string{RoleUser, "owner"}}, want: []string{"userRole"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldErrors(t, tt.user.Validate())
			if diff := cmp.Diff(tt.want, got, sortStrings); diff != "" {
				t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	c := &Category{}
	c.ApplyDefaults()
	if c.SubCategory == nil {
		t.Error("subCategory must default to empty")
	}
	if diff := cmp.Diff([]string{"name"}, fieldErrors(t, c.Validate())); diff != "" {
		t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemas_DeclareKnownFields(t *testing.T) {
	if got := ProductSchema().Query.Filters["status"].Column; got != "product_status" {
		t.Errorf("status filter column = %q", got)
	}
	if n := len(Tables()); n != 4 {
		t.Errorf("Tables() = %d tables, want 4", n)
	}
	for _, u := range ClotSchema().Unique {
		if u.Value(&Clot{Email: "x@example.com"}) != "x@example.com" {
			t.Errorf("unique key %s reads the wrong field", u.Field)
		}
	}
}
