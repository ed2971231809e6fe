package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInvoiceStatus_TransitionTo(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		wantErr  error
	}{
		{InvoiceStatusDraft, InvoiceStatusPending, nil},
		{InvoiceStatusDraft, InvoiceStatusPaid, nil},
		{InvoiceStatusDraft, InvoiceStatusDraft, nil},
		{InvoiceStatusPending, InvoiceStatusDraft, nil},
		{InvoiceStatusPaid, InvoiceStatusPending, nil},
		{InvoiceStatusPaid, InvoiceStatusDraft, ErrInvalidTransition},
		{InvoiceStatusPaid, InvoiceStatusCancelled, ErrInvalidTransition},
		{InvoiceStatusCancelled, InvoiceStatusPaid, ErrInvalidTransition},
		{InvoiceStatusCancelled, InvoiceStatusDraft, nil},
		{InvoiceStatusDraft, "final", ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.TransitionTo(tt.to)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("TransitionTo() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("TransitionTo() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnquiryStatus_TransitionTo(t *testing.T) {
	if err := EnquiryStatusNew.TransitionTo(EnquiryStatusResolved); err != nil {
		t.Errorf("new->resolved: %v", err)
	}
	if err := EnquiryStatusResolved.TransitionTo(EnquiryStatusNew); err != nil {
		t.Errorf("resolved->new: %v", err)
	}
	err := EnquiryStatusRead.TransitionTo(EnquiryStatusNew)
	var te *TransitionError
	if !errors.As(err, &te) || te.From != "read" || te.To != "new" {
		t.Errorf("read->new = %v, want *TransitionError", err)
	}
	if EnquiryStatus("spam").Valid() {
		t.Error("spam should not be a valid status")
	}
}

func TestTransitionError_Allowed(t *testing.T) {
	var te *TransitionError
	if !errors.As(InvoiceStatusPaid.TransitionTo(InvoiceStatusDraft), &te) {
		t.Fatal("paid->draft should be a *TransitionError")
	}
	if len(te.Allowed) != 1 || te.Allowed[0] != string(InvoiceStatusPending) {
		t.Errorf("Allowed = %v, want [pending]", te.Allowed)
	}
	te.Allowed[0] = "cancelled"
	if err := InvoiceStatusPaid.TransitionTo(InvoiceStatusPending); err != nil {
		t.Errorf("transition table changed through Allowed: %v", err)
	}
}

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-15"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2024-03-15" {
		t.Errorf("String() = %q", d.String())
	}

	if err := json.Unmarshal([]byte(`"2024-03-15T23:30:00+05:30"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2024-03-15" {
		t.Errorf("RFC3339 input gave %q, want the local calendar day", d.String())
	}

	out, err := json.Marshal(struct {
		Due *Date `json:"due"`
		On  Date  `json:"on"`
	}{On: NewDate(2024, time.March, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"due":null,"on":"2024-03-01"}` {
		t.Errorf("Marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`"15/03/2024"`), &d); err == nil {
		t.Error("expected an error for a non ISO date")
	}
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"time", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "2024-03-09"},
		{"string", "2024-03-09", "2024-03-09"},
		{"bytes", []byte("2024-03-09T00:00:00Z"), "2024-03-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.in); err != nil {
				t.Fatal(err)
			}
			if d.String() != tt.want {
				t.Errorf("Scan(%v) = %s, want %s", tt.in, d, tt.want)
			}
		})
	}
}

func TestUser_Password(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("s3cret-pass"); err != nil {
		t.Fatal(err)
	}
	if !u.CheckPassword("s3cret-pass") {
		t.Error("CheckPassword rejected the right password")
	}
	if u.CheckPassword("wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
	out, _ := json.Marshal(u)
	var m map[string]any
	_ = json.Unmarshal(out, &m)
	if _, ok := m["password_hash"]; ok {
		t.Error("password hash must not be serialised")
	}
}

func TestInvoice_RoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(All()...); err != nil {
		t.Fatal(err)
	}

	customer := NewCustomer()
	customer.ContactPerson = "Acme Traders"
	customer.Phone = "9000000000"
	if err := db.Create(customer).Error; err != nil {
		t.Fatal(err)
	}
	if customer.ID == uuid.Nil {
		t.Fatal("BeforeCreate did not assign an id")
	}

	due := NewDate(2024, time.April, 15)
	inv := &Invoice{
		InvoiceNumber: "NMS-202403-0001",
		CustomerID:    &customer.ID,
		InvoiceDate:   NewDate(2024, time.March, 15),
		DueDate:       &due,
		Subtotal:      decimal.RequireFromString("1000.00"),
		TaxRate:       decimal.RequireFromString("5"),
		TaxAmount:     decimal.RequireFromString("50.00"),
		TotalAmount:   decimal.RequireFromString("1050.00"),
		Status:        InvoiceStatusDraft,
		Items: []InvoiceItem{{
			Description: "Widget",
			Quantity:    decimal.NewFromInt(10),
			UnitPrice:   decimal.NewFromInt(100),
			Amount:      decimal.NewFromInt(1000),
		}},
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatal(err)
	}

	var got Invoice
	if err := db.Preload("Customer").Preload("Items").First(&got, "id = ?", inv.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.CustomerName == nil || *got.CustomerName != "Acme Traders" {
		t.Errorf("CustomerName = %v, want Acme Traders", got.CustomerName)
	}
	if got.InvoiceDate.String() != "2024-03-15" || got.DueDate == nil || got.DueDate.String() != "2024-04-15" {
		t.Errorf("dates = %s / %v", got.InvoiceDate, got.DueDate)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("1050")) {
		t.Errorf("TotalAmount = %s", got.TotalAmount)
	}
	if len(got.Items) != 1 || got.Items[0].InvoiceID != inv.ID {
		t.Errorf("Items = %+v", got.Items)
	}

	var walkIn Invoice
	walkIn.InvoiceNumber = "NMS-202403-0002"
	walkIn.InvoiceDate = NewDate(2024, time.March, 16)
	walkIn.Status = InvoiceStatusDraft
	if err := db.Create(&walkIn).Error; err != nil {
		t.Fatal(err)
	}
	var reloaded Invoice
	if err := db.Preload("Customer").First(&reloaded, "id = ?", walkIn.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CustomerName != nil {
		t.Errorf("walk-in CustomerName = %q, want nil", *reloaded.CustomerName)
	}
	if reloaded.Items == nil {
		t.Error("Items should render as an empty list, not null")
	}
}

func TestInvoiceItem_QuantityDefault(t *testing.T) {
	var items []InvoiceItem
	body := `[{"description":"Widget"},{"description":"Bolt","quantity":"0"},{"description":"Nut","quantity":"2.5"}]`
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "0", "2.5"}
	for i, it := range items {
		if it.Quantity.String() != want[i] {
			t.Errorf("items[%d].Quantity = %s, want %s", i, it.Quantity, want[i])
		}
	}
	if items[0].Description != "Widget" {
		t.Errorf("description lost: %q", items[0].Description)
	}
}
