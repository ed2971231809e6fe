// Package validation collects field-level violations for request bodies.
package validation

import (
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
)

// Violations maps a JSON field name to a machine-readable code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLen(field, value string, n int, v Violations) {
	if len([]rune(value)) > n {
		v.Add(field, "too_long")
	}
}

// Email checks value only when it is non-empty.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "invalid_email")
	}
}

func NonNegative(field string, d decimal.Decimal, v Violations) {
	if d.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func Positive(field string, d decimal.Decimal, v Violations) {
	if !d.IsPositive() {
		v.Add(field, "must_be_positive")
	}
}

func Percent(field string, d decimal.Decimal, v Violations) {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		v.Add(field, "out_of_range")
	}
}

func MinInt(field string, n, minVal int, v Violations) {
	if n < minVal {
		v.Add(field, "out_of_range")
	}
}

// Slug accepts lower-case letters, digits and single hyphens.
func Slug(field, value string, v Violations) {
	if value == "" {
		return
	}
	prevHyphen := true
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			prevHyphen = false
		case r == '-' && !prevHyphen:
			prevHyphen = true
		default:
			v.Add(field, "invalid_slug")
			return
		}
	}
	if prevHyphen {
		v.Add(field, "invalid_slug")
	}
}
