package services

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nellusoru/backoffice/internal/models"
)

var hundred = decimal.NewFromInt(100)

// TotalsPolicy decides whether the totals a client submitted are accepted.
type TotalsPolicy interface {
	Check(inv *models.Invoice) error
}

// LedgerTotals records totals exactly as submitted.
type LedgerTotals struct{}

func (LedgerTotals) Check(*models.Invoice) error { return nil }

// StrictTotals rejects invoices whose totals disagree with ExpectedTotals.
type StrictTotals struct{}

func (StrictTotals) Check(inv *models.Invoice) error {
	want := ExpectedTotals(inv)
	mismatch := &TotalsMismatchError{}

	for i, it := range inv.Items {
		if !it.Amount.Equal(want.Amounts[i]) {
			mismatch.add(fmt.Sprintf("items[%d].amount", i), it.Amount, want.Amounts[i])
		}
	}
	if !inv.Subtotal.Equal(want.Subtotal) {
		mismatch.add("subtotal", inv.Subtotal, want.Subtotal)
	}
	if !inv.TaxAmount.Equal(want.TaxAmount) {
		mismatch.add("tax_amount", inv.TaxAmount, want.TaxAmount)
	}
	if !inv.TotalAmount.Equal(want.TotalAmount) {
		mismatch.add("total_amount", inv.TotalAmount, want.TotalAmount)
	}
	if len(mismatch.Fields) > 0 {
		return mismatch
	}
	return nil
}

// TotalsPolicyFor maps the INVOICE_TOTALS_MODE setting to a policy.
func TotalsPolicyFor(mode string) TotalsPolicy {
	if mode == "strict" {
		return StrictTotals{}
	}
	return LedgerTotals{}
}

// Totals holds the computed line amounts and header totals of an invoice.
type Totals struct {
	Amounts     []decimal.Decimal
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// ExpectedTotals recomputes an invoice from its items, rate and discount,
// rounding each figure half away from zero to 2 places.
func ExpectedTotals(inv *models.Invoice) Totals {
	t := Totals{Amounts: make([]decimal.Decimal, len(inv.Items))}
	for i, it := range inv.Items {
		factor := hundred.Sub(it.DiscountPercent).Div(hundred)
		t.Amounts[i] = it.Quantity.Mul(it.UnitPrice).Mul(factor).Round(2)
		t.Subtotal = t.Subtotal.Add(t.Amounts[i])
	}
	t.TaxAmount = t.Subtotal.Mul(inv.TaxRate).Div(hundred).Round(2)
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount).Sub(inv.DiscountAmount).Round(2)
	return t
}

// TotalsMismatchError lists every figure that disagrees with ExpectedTotals.
type TotalsMismatchError struct {
	Fields map[string]FieldMismatch
}

// FieldMismatch pairs a submitted value with the computed one.
type FieldMismatch struct {
	Got      string `json:"got"`
	Expected string `json:"expected"`
}

func (e *TotalsMismatchError) add(field string, got, want decimal.Decimal) {
	if e.Fields == nil {
		e.Fields = make(map[string]FieldMismatch)
	}
	e.Fields[field] = FieldMismatch{Got: got.StringFixed(2), Expected: want.StringFixed(2)}
}

func (e *TotalsMismatchError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return "totals mismatch: " + strings.Join(names, ", ")
}
