package services

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrencySymbol fits the cp1252 core PDF fonts.
const DefaultCurrencySymbol = "Rs."

var grouping = message.NewPrinter(language.English)

// FormatAmount renders d with two decimals and comma thousands separators,
// e.g. 1,050.00. Rounding is half away from zero.
func FormatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	grouped := groupThousands(whole)
	if d.Round(2).IsNegative() {
		grouped = "-" + grouped
	}
	return grouped + "." + frac
}

// groupThousands inserts commas into a string of digits. Values past int64
// are grouped by hand.
func groupThousands(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return grouping.Sprintf("%d", n)
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatMoney prefixes FormatAmount with the currency symbol.
func FormatMoney(d decimal.Decimal, symbol string) string {
	if symbol == "" {
		return FormatAmount(d)
	}
	return symbol + " " + FormatAmount(d)
}

// FormatRate renders a percentage without trailing zeros: 18.00 -> 18,
// 12.50 -> 12.5.
func FormatRate(d decimal.Decimal) string {
	return d.Round(2).String()
}
