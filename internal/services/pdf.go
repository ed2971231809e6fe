package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/nellusoru/backoffice/internal/models"
)

const (
	pageMargin   = 20.0
	contentWidth = 210.0 - 2*pageMargin
	lineHeight   = 5.0
	rowHeight    = 7.0
	fontFamily   = "Helvetica"
)

// item table columns: #, Description, Qty, Unit, Unit Price, Amount
var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Description", 70, "L"},
	{"Qty", 18, "R"},
	{"Unit", 18, "C"},
	{"Unit Price", 27, "R"},
	{"Amount", 27, "R"},
}

// BusinessInfo is the letterhead printed on every invoice.
type BusinessInfo struct {
	Name        string
	Tagline     string
	Address     string
	Phone       string
	Email       string
	Established int
}

// PDFRenderer lays out invoices as A4 PDF documents. Rendering does no I/O
// and the same invoice always yields the same bytes.
type PDFRenderer struct {
	Business BusinessInfo
	Symbol   string
}

func NewPDFRenderer(business BusinessInfo, symbol string) *PDFRenderer {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return &PDFRenderer{Business: business, Symbol: symbol}
}

// Render draws inv. customer may be nil for walk-in sales.
func (r *PDFRenderer) Render(inv *models.Invoice, customer *models.Customer) ([]byte, error) {
	if inv == nil {
		return nil, errors.New("render pdf: nil invoice")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+5)
	pdf.SetCompression(false)
	pdf.SetCreationDate(inv.CreatedAt)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, false)
	pdf.SetAuthor(r.Business.Name, false)

	d := &invoiceDoc{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		symbol: r.Symbol,
	}
	pdf.SetFooterFunc(func() { d.footer(r.Business) })
	pdf.AddPage()

	d.letterhead(r.Business)
	d.title()
	d.meta(inv)
	d.billTo(customer)
	d.items(inv.Items)
	d.totals(inv)
	d.section("Notes:", inv.Notes)
	d.section("Terms & Conditions:", inv.Terms)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}

// invoiceDoc wraps one gofpdf document during rendering.
type invoiceDoc struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	symbol string
}

func (d *invoiceDoc) font(style string, size float64) {
	d.pdf.SetFont(fontFamily, style, size)
}

func (d *invoiceDoc) line(text, align string) {
	d.pdf.CellFormat(contentWidth, lineHeight, d.tr(text), "", 1, align, false, 0, "")
}

func (d *invoiceDoc) money(v decimal.Decimal) string {
	return FormatMoney(v, d.symbol)
}

func (d *invoiceDoc) letterhead(b BusinessInfo) {
	d.font("B", 18)
	d.pdf.CellFormat(contentWidth, 9, d.tr(b.Name), "", 1, "C", false, 0, "")
	d.font("I", 10)
	d.line(b.Tagline, "C")
	d.font("", 9)
	d.line(b.Address, "C")
	d.line(fmt.Sprintf("Phone: %s | Email: %s", b.Phone, b.Email), "C")
	d.pdf.Ln(2)

	x, y := d.pdf.GetXY()
	d.pdf.Line(x, y, x+contentWidth, y)
	d.pdf.Ln(6)
}

func (d *invoiceDoc) title() {
	d.font("B", 16)
	d.pdf.CellFormat(contentWidth, 10, "INVOICE", "", 1, "C", false, 0, "")
	d.pdf.Ln(4)
}

func (d *invoiceDoc) meta(inv *models.Invoice) {
	due := "N/A"
	if inv.DueDate != nil {
		due = inv.DueDate.String()
	}
	rows := [][2]string{
		{"Invoice Number:", inv.InvoiceNumber},
		{"Date:", inv.InvoiceDate.String()},
		{"Status:", strings.ToUpper(string(inv.Status))},
		{"Due Date:", due},
	}
	for _, row := range rows {
		d.font("B", 10)
		d.pdf.CellFormat(35, 6, row[0], "", 0, "L", false, 0, "")
		d.font("", 10)
		d.pdf.CellFormat(contentWidth-35, 6, d.tr(row[1]), "", 1, "L", false, 0, "")
	}
	d.pdf.Ln(5)
}

func (d *invoiceDoc) billTo(c *models.Customer) {
	d.font("B", 11)
	d.line("Bill To:", "L")

	if c == nil {
		d.font("", 10)
		d.line("Walk-in Customer", "L")
		d.pdf.Ln(5)
		return
	}

	d.font("B", 10)
	d.line(c.ContactPerson, "L")
	d.font("", 10)
	if c.CompanyName != "" {
		d.line(c.CompanyName, "L")
	}
	if c.Address != "" {
		d.pdf.MultiCell(contentWidth, lineHeight, d.tr(c.Address), "", "L", false)
	}
	if place := cityLine(c); place != "" {
		d.line(place, "L")
	}
	d.line("Phone: "+c.Phone, "L")
	if c.GSTNumber != "" {
		d.line("GST: "+c.GSTNumber, "L")
	}
	d.pdf.Ln(5)
}

// cityLine renders "city, state - pincode", dropping absent parts.
func cityLine(c *models.Customer) string {
	var parts []string
	if c.City != "" {
		parts = append(parts, c.City)
	}
	if c.State != "" {
		parts = append(parts, c.State)
	}
	s := strings.Join(parts, ", ")
	if c.Pincode != "" {
		if s != "" {
			s += " - "
		}
		s += c.Pincode
	}
	return s
}

func (d *invoiceDoc) items(items []models.InvoiceItem) {
	d.font("B", 11)
	d.line("Items:", "L")

	d.font("B", 9)
	d.pdf.SetFillColor(52, 73, 94)
	d.pdf.SetTextColor(255, 255, 255)
	for _, col := range itemColumns {
		d.pdf.CellFormat(col.width, rowHeight, col.title, "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetTextColor(0, 0, 0)

	d.font("", 9)
	for i, it := range items {
		unit := it.Unit
		if unit == "" {
			unit = "-"
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			it.Description,
			it.Quantity.String(),
			unit,
			d.money(it.UnitPrice),
			d.money(it.Amount),
		}

		descWidth := itemColumns[1].width
		lines := d.pdf.SplitLines([]byte(d.tr(it.Description)), descWidth-2)
		height := rowHeight
		if n := float64(len(lines)) * lineHeight; n > height {
			height = n
		}
		if i%2 == 1 {
			d.pdf.SetFillColor(240, 240, 240)
		} else {
			d.pdf.SetFillColor(255, 255, 255)
		}
		_, pageHeight := d.pdf.GetPageSize()
		if d.pdf.GetY()+height > pageHeight-pageMargin-5 {
			d.pdf.AddPage()
		}

		x, y := d.pdf.GetXY()
		for c, col := range itemColumns {
			if c == 1 {
				d.pdf.Rect(x, y, col.width, height, "FD")
				d.pdf.SetXY(x, y+(height-float64(len(lines))*lineHeight)/2)
				d.pdf.MultiCell(col.width, lineHeight, d.tr(cells[c]), "", col.align, false)
				d.pdf.SetXY(x+col.width, y)
			} else {
				d.pdf.CellFormat(col.width, height, d.tr(cells[c]), "1", 0, col.align, true, 0, "")
			}
			x += col.width
		}
		d.pdf.SetXY(pageMargin, y+height)
	}
	d.pdf.Ln(5)
}

func (d *invoiceDoc) totals(inv *models.Invoice) {
	labelW, valueW := 40.0, 35.0
	indent := contentWidth - labelW - valueW

	row := func(label, value string) {
		d.pdf.SetX(pageMargin + indent)
		d.pdf.CellFormat(labelW, rowHeight, label, "", 0, "R", false, 0, "")
		d.pdf.CellFormat(valueW, rowHeight, value, "", 1, "R", false, 0, "")
	}

	d.font("", 10)
	row("Subtotal:", d.money(inv.Subtotal))
	row(fmt.Sprintf("Tax (%s%%):", FormatRate(inv.TaxRate)), d.money(inv.TaxAmount))
	row("Discount:", "-"+d.money(inv.DiscountAmount))

	x, y := d.pdf.GetXY()
	d.pdf.Line(x+indent, y, x+contentWidth, y)
	d.font("B", 12)
	row("TOTAL:", d.money(inv.TotalAmount))
	d.pdf.Ln(6)
}

func (d *invoiceDoc) section(heading, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	d.font("B", 10)
	d.line(heading, "L")
	d.font("", 9)
	d.pdf.MultiCell(contentWidth, lineHeight, d.tr(body), "", "L", false)
	d.pdf.Ln(4)
}

func (d *invoiceDoc) footer(b BusinessInfo) {
	d.pdf.SetY(-15)
	d.font("I", 8)
	d.pdf.SetTextColor(128, 128, 128)
	text := fmt.Sprintf("Thank you for your business! | %s | Est. %d", b.Name, b.Established)
	d.pdf.CellFormat(0, 10, d.tr(text), "", 0, "C", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}
