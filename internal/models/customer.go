package models

// Customer is a billing contact. ContactPerson is the name printed on
// invoices.
type Customer struct {
	Base

	CompanyName    string `gorm:"size:200" json:"company_name"`
	ContactPerson  string `gorm:"size:100;not null" json:"contact_person"`
	Email          string `gorm:"size:100" json:"email"`
	Phone          string `gorm:"size:20;not null" json:"phone"`
	AlternatePhone string `gorm:"size:20" json:"alternate_phone"`

	// Address
	Address string `gorm:"type:text" json:"address"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	Pincode string `gorm:"size:10" json:"pincode"`

	GSTNumber string `gorm:"column:gst_number;size:20" json:"gst_number"`
	Notes     string `gorm:"type:text" json:"notes"`
	IsActive  bool   `gorm:"not null" json:"is_active"`
}

// NewCustomer returns a customer with its defaults applied.
func NewCustomer() *Customer {
	return &Customer{IsActive: true}
}
