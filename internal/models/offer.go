package models

import "github.com/shopspring/decimal"

// Offer is a promotional banner shown on the public site.
type Offer struct {
	Base

	Title           string           `gorm:"size:200;not null" json:"title"`
	Description     string           `gorm:"type:text" json:"description"`
	ImageURL        string           `gorm:"size:500" json:"image_url"`
	StartDate       *Date            `gorm:"type:date" json:"start_date"`
	EndDate         *Date            `gorm:"type:date" json:"end_date"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	IsActive        bool             `gorm:"not null" json:"is_active"`
	DisplayOrder    int              `gorm:"not null" json:"display_order"`
}

// NewOffer returns an offer with its defaults applied.
func NewOffer() *Offer {
	return &Offer{IsActive: true}
}
