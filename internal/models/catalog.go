package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the public catalog.
type Category struct {
	Base

	Name         string `gorm:"size:100;not null" json:"name"`
	Slug         string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description  string `gorm:"type:text" json:"description"`
	ImageURL     string `gorm:"size:500" json:"image_url"`
	IsActive     bool   `gorm:"not null" json:"is_active"`
	DisplayOrder int    `gorm:"not null" json:"display_order"`
}

// Product is a catalog entry. Price is optional: some products are quoted
// on request.
type Product struct {
	Base

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category   *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`

	Name           string           `gorm:"size:200;not null" json:"name"`
	Slug           string           `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Brand          string           `gorm:"size:100" json:"brand"`
	Description    string           `gorm:"type:text" json:"description"`
	Specifications string           `gorm:"type:text" json:"specifications"`
	ImageURL       string           `gorm:"size:500" json:"image_url"`
	Price          *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	Unit           string           `gorm:"size:50" json:"unit"`
	MinOrderQty    int              `gorm:"column:min_order_quantity;not null" json:"min_order_quantity"`
	IsFeatured     bool             `gorm:"not null" json:"is_featured"`
	IsActive       bool             `gorm:"not null" json:"is_active"`

	// CategoryName is filled from the preloaded Category.
	CategoryName *string `gorm:"-" json:"category_name"`
}

// NewCategory returns a category with its defaults applied.
func NewCategory() *Category {
	return &Category{IsActive: true}
}

// NewProduct returns a product with its defaults applied.
func NewProduct() *Product {
	return &Product{MinOrderQty: 1, IsActive: true}
}

func (p *Product) AfterFind(*gorm.DB) error {
	p.CategoryName = nil
	if p.Category != nil {
		name := p.Category.Name
		p.CategoryName = &name
	}
	return nil
}
