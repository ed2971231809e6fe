package models

import "github.com/google/uuid"

// EnquiryStatus tracks how far staff have handled an enquiry.
type EnquiryStatus string

const (
	EnquiryStatusNew      EnquiryStatus = "new"
	EnquiryStatusRead     EnquiryStatus = "read"
	EnquiryStatusReplied  EnquiryStatus = "replied"
	EnquiryStatusResolved EnquiryStatus = "resolved"
)

var enquiryTransitions = transitions[EnquiryStatus]{
	EnquiryStatusNew:      {EnquiryStatusRead, EnquiryStatusReplied, EnquiryStatusResolved},
	EnquiryStatusRead:     {EnquiryStatusReplied, EnquiryStatusResolved},
	EnquiryStatusReplied:  {EnquiryStatusRead, EnquiryStatusResolved},
	EnquiryStatusResolved: {EnquiryStatusNew},
}

// EnquiryStatuses lists every status in workflow order.
var EnquiryStatuses = []EnquiryStatus{
	EnquiryStatusNew,
	EnquiryStatusRead,
	EnquiryStatusReplied,
	EnquiryStatusResolved,
}

// Valid reports whether s is a known status.
func (s EnquiryStatus) Valid() bool { return enquiryTransitions.known(s) }

// TransitionTo returns nil when s may move to next, ErrInvalidStatus when
// next is unknown and a *TransitionError otherwise.
func (s EnquiryStatus) TransitionTo(next EnquiryStatus) error {
	return enquiryTransitions.check(s, next)
}

// Enquiry is a lead submitted through the public contact form.
type Enquiry struct {
	Base

	Name    string `gorm:"size:100;not null" json:"name"`
	Email   string `gorm:"size:100" json:"email"`
	Phone   string `gorm:"size:20;not null" json:"phone"`
	Company string `gorm:"size:200" json:"company"`
	Subject string `gorm:"size:200" json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`

	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"-"`

	Status EnquiryStatus `gorm:"size:20;not null;default:'new';index" json:"status"`
	Notes  string        `gorm:"type:text" json:"notes"`
}
