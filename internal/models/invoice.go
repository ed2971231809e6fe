package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var invoiceTransitions = transitions[InvoiceStatus]{
	InvoiceStatusDraft:     {InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPending:   {InvoiceStatusDraft, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:      {InvoiceStatusPending},
	InvoiceStatusCancelled: {InvoiceStatusDraft},
}

// InvoiceStatuses lists every status in lifecycle order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusPending,
	InvoiceStatusPaid,
	InvoiceStatusCancelled,
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool { return invoiceTransitions.known(s) }

// TransitionTo returns nil when s may move to next, ErrInvalidStatus when
// next is unknown and a *TransitionError otherwise.
func (s InvoiceStatus) TransitionTo(next InvoiceStatus) error {
	return invoiceTransitions.check(s, next)
}

// Invoice is a sales document. Its totals are recorded as submitted.
type Invoice struct {
	Base

	InvoiceNumber string `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`

	// Customer relationship; nil means walk-in.
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL" json:"-"`

	InvoiceDate Date  `gorm:"type:date;not null" json:"invoice_date"`
	DueDate     *Date `gorm:"type:date" json:"due_date"`

	// Totals
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	Status InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes"`
	Terms  string        `gorm:"type:text" json:"terms"`

	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`

	// CustomerName is filled from the preloaded Customer.
	CustomerName *string `gorm:"-" json:"customer_name"`
}

func (i *Invoice) AfterFind(*gorm.DB) error {
	i.CustomerName = nil
	if i.Customer != nil {
		name := i.Customer.ContactPerson
		i.CustomerName = &name
	}
	if i.Items == nil {
		i.Items = []InvoiceItem{}
	}
	return nil
}

// InvoiceItem is one line of an invoice. Position keeps the submitted order.
type InvoiceItem struct {
	Base

	InvoiceID uuid.UUID  `gorm:"type:uuid;index;not null" json:"invoice_id"`
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"-"`

	Description     string          `gorm:"size:500;not null" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Unit            string          `gorm:"size:50" json:"unit"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Position        int             `gorm:"not null" json:"position"`
}

// UnmarshalJSON defaults an omitted quantity to 1. An explicit value,
// zero included, is kept for validation.
func (it *InvoiceItem) UnmarshalJSON(b []byte) error {
	type plain InvoiceItem
	out := plain{Quantity: decimal.NewFromInt(1)}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*it = InvoiceItem(out)
	return nil
}
