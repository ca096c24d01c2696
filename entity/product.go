package entity

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-crud-admin/crud"
	"github.com/goliatone/go-crud-admin/internal/storage"
	"github.com/goliatone/go-crud-admin/query"
)

// Product lifecycle states.
const (
	ProductDisabled   = "disabled"
	ProductOutOfStock = "out-of-stock"
	ProductComingSoon = "coming-soon"
	ProductActive     = "active"
)

type Image struct {
	ImageFor string `json:"imageFor"`
	ImgURL   string `json:"imgURL"`
}

type Review struct {
	Review  string `json:"review"`
	Name    string `json:"name"`
	UserUID string `json:"userUID"`
}

type PickupPoint struct {
	PickupPointsUID string `json:"pickupPointsUID"`
	Name            string `json:"name"`
}

type Attribute struct {
	AttributesUID string `json:"attributesUID"`
	Name          string `json:"name"`
}

type ShopInfo struct {
	ShopName string `json:"shopName"`
	ShopUID  string `json:"shopUID"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	Base

	ProductUID    string        `bun:"product_uid,notnull,default:''" json:"productUID"`
	Name          string        `bun:"name,notnull,default:''" json:"name"`
	Description   string        `bun:"description,notnull,default:''" json:"description"`
	Image         Image         `bun:"image" json:"image"`
	RealPrice     float64       `bun:"real_price,notnull,default:0" json:"realPrice"`
	DiscountPrice float64       `bun:"discount_price,notnull,default:0" json:"discountPrice"`
	Reviews       []Review      `bun:"reviews" json:"reviews"`
	Color         string        `bun:"color,notnull,default:''" json:"color"`
	Category      string        `bun:"category,notnull,default:''" json:"category"`
	PickupPoints  []PickupPoint `bun:"pickup_points" json:"pickupPoints"`
	Attributes    []Attribute   `bun:"attributes" json:"attributes"`
	ProductStatus string        `bun:"product_status,notnull" json:"productStatus"`
	TotalSells    int64         `bun:"total_sells,notnull,default:0" json:"totalSells"`
	ShopsInfo     []ShopInfo    `bun:"shops_info" json:"shopsInfo"`
}

func (p *Product) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ProductStatus, validation.Required,
			validation.In(ProductDisabled, ProductOutOfStock, ProductComingSoon, ProductActive)),
		validation.Field(&p.RealPrice, validation.Min(0.0)),
		validation.Field(&p.DiscountPrice, validation.Min(0.0)),
		validation.Field(&p.TotalSells, validation.Min(int64(0))),
	)
}

// ApplyDefaults trims text fields and fills the lifecycle state.
func (p *Product) ApplyDefaults() {
	p.ProductUID = trim(p.ProductUID)
	p.Name = trim(p.Name)
	p.Description = trim(p.Description)
	p.Color = trim(p.Color)
	p.Category = trim(p.Category)

	if p.ProductStatus == "" {
		p.ProductStatus = ProductComingSoon
	}
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
	if p.PickupPoints == nil {
		p.PickupPoints = []PickupPoint{}
	}
	if p.Attributes == nil {
		p.Attributes = []Attribute{}
	}
	if p.ShopsInfo == nil {
		p.ShopsInfo = []ShopInfo{}
	}
}

// ProductSchema describes products to the crud engine.
func ProductSchema() crud.Schema[*Product] {
	return crud.Schema[*Product]{
		Name:  "product",
		Table: "products",
		Query: query.Spec{
			Searchable: []string{"name", "description", "product_uid"},
			Filters: map[string]query.FilterSpec{
				"category":      {Column: "category", Kind: query.FilterEquality},
				"status":        {Column: "product_status", Kind: query.FilterEquality},
				"realPrice":     {Column: "real_price", Kind: query.FilterRange, Numeric: true},
				"discountPrice": {Column: "discount_price", Kind: query.FilterRange, Numeric: true},
				"totalSells":    {Column: "total_sells", Kind: query.FilterRange, Numeric: true},
			},
			Sortable: map[string]string{
				"name":          "name",
				"realPrice":     "real_price",
				"discountPrice": "discount_price",
				"totalSells":    "total_sells",
			},
		},
		Fields: []string{
			"productUID", "name", "description", "image", "realPrice", "discountPrice",
			"reviews", "color", "category", "pickupPoints", "attributes", "productStatus",
			"totalSells", "shopsInfo",
		},
		Unique: []crud.UniqueKey[*Product]{
			{Field: "productUID", Column: "product_uid", Value: func(p *Product) string { return p.ProductUID }},
		},
		New: func() *Product { return &Product{} },
	}
}

// ProductTable is the migration descriptor for products.
func ProductTable() storage.Table {
	return storage.Table{
		Name:  "products",
		Model: (*Product)(nil),
		Indexes: []storage.Index{
			{Column: "product_uid", Unique: true, Where: "product_uid <> ''"},
			{Column: "category"},
			{Column: "product_status"},
		},
	}
}
