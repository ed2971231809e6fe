package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const whatsAppBase = "https://wa.me/"

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// InvoiceShareText is the message suggested when sharing an invoice.
func InvoiceShareText(number string, total decimal.Decimal, symbol string) string {
	return fmt.Sprintf("Your invoice %s for %s is ready. Contact us for details.",
		number, FormatMoney(total, symbol))
}

// WhatsAppLink builds a click-to-chat link. phone must already be
// normalised.
func WhatsAppLink(phone, text string) string {
	return whatsAppBase + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
