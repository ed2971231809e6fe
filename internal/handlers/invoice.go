package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nellusoru/backoffice/auth"
	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/logging"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/internal/services"
	"github.com/nellusoru/backoffice/validation"
)

type InvoiceHandler struct {
	Invoices *services.InvoiceService
	PDF      *services.PDFRenderer
}

func NewInvoiceHandler(invoices *services.InvoiceService, pdf *services.PDFRenderer) *InvoiceHandler {
	return &InvoiceHandler{Invoices: invoices, PDF: pdf}
}

// violationsError carries field violations out of an update callback.
type violationsError validation.Violations

func (violationsError) Error() string { return "validation failed" }

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	customerID, ok := queryUUID(w, r, "customer_id")
	if !ok {
		return
	}
	f := services.InvoiceFilter{
		CustomerID: customerID,
		Search:     r.URL.Query().Get("search"),
		Page:       pg,
	}
	if s := r.URL.Query().Get("status_filter"); s != "" {
		f.Status = models.InvoiceStatus(s)
		if !f.Status.Valid() {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
			return
		}
	}
	invoices, err := h.Invoices.List(r.Context(), f)
	if err != nil {
		serverError(w, r, err, "list invoices")
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Invoices.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create handles POST /invoices. The number is always assigned by the
// server; a client-supplied invoice_number is ignored.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	inv := &models.Invoice{}
	v := validation.Violations{}
	applyInvoice(p, inv, v)
	if !p.IsNull("items") {
		if _, err := p.Decode("items", &inv.Items); err != nil {
			v.Add("items", "invalid")
		}
	}
	validateItems(inv.Items, v)
	if validationFailed(w, v) {
		return
	}
	if uid, ok := auth.UserIDFromContext(r.Context()); ok {
		inv.CreatedBy = &uid
	}

	if err := h.Invoices.Create(r.Context(), inv); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.Invoices.Get(r.Context(), inv.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

// Update handles PUT /invoices/{id}. A present items key, even [], replaces
// every line; an absent or null one keeps them.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	change := services.InvoiceChange{
		Apply: func(inv *models.Invoice) error {
			v := validation.Violations{}
			applyInvoice(p, inv, v)
			if !v.Empty() {
				return violationsError(v)
			}
			return nil
		},
	}
	if p.Has("items") && !p.IsNull("items") {
		items := []models.InvoiceItem{}
		v := validation.Violations{}
		if _, err := p.Decode("items", &items); err != nil {
			v.Add("items", "invalid")
		}
		validateItems(items, v)
		if validationFailed(w, v) {
			return
		}
		change.Items = &items
	}

	inv, err := h.Invoices.Update(r.Context(), id, change)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Invoices.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, "Invoice deleted successfully")
}

// PDFDownload handles GET /invoices/{id}/pdf.
func (h *InvoiceHandler) PDFDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Invoices.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body, err := h.PDF.Render(inv, inv.Customer)
	if err != nil {
		serverError(w, r, err, "render invoice pdf")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice_%s.pdf"`, inv.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// WhatsAppShare is the answer of the send-whatsapp stub.
type WhatsAppShare struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	WhatsAppLink string `json:"whatsapp_link"`
}

// SendWhatsApp handles POST /invoices/{id}/send-whatsapp. Nothing is sent;
// the caller gets a click-to-chat link instead.
func (h *InvoiceHandler) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	phone := r.URL.Query().Get("phone_number")
	if phone == "" && r.ContentLength != 0 {
		var in struct {
			PhoneNumber string `json:"phone_number"`
		}
		if err := httpx.DecodeJSON(r, &in); err != nil && !isEmptyBody(err) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		phone = in.PhoneNumber
	}

	inv, err := h.Invoices.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(phone) == "" && inv.Customer != nil {
		phone = inv.Customer.Phone
	}
	phone = services.NormalizePhone(phone)
	if phone == "" {
		httpx.JSONError(w, http.StatusBadRequest, "phone_required", nil)
		return
	}

	text := services.InvoiceShareText(inv.InvoiceNumber, inv.TotalAmount, h.PDF.Symbol)
	logging.FromContext(r.Context()).WithFields(logrus.Fields{
		"invoice_number": inv.InvoiceNumber,
		"phone":          phone,
	}).Info("whatsapp share prepared")
	httpx.JSON(w, http.StatusOK, WhatsAppShare{
		Success:      true,
		Message:      fmt.Sprintf("Invoice %s would be sent to %s", inv.InvoiceNumber, phone),
		WhatsAppLink: services.WhatsAppLink(phone, text),
	})
}

// fail maps service errors onto the error envelope.
func (h *InvoiceHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *services.TotalsMismatchError
	var violations violationsError
	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		httpx.JSONError(w, http.StatusNotFound, "invoice_not_found", nil)
	case errors.Is(err, services.ErrCustomerNotFound):
		httpx.JSONError(w, http.StatusBadRequest, "customer_not_found", nil)
	case errors.Is(err, services.ErrProductNotFound):
		httpx.JSONError(w, http.StatusBadRequest, "product_not_found", nil)
	case errors.Is(err, services.ErrInvoiceNumberConflict):
		httpx.JSONError(w, http.StatusConflict, "invoice_number_conflict", nil)
	case errors.As(err, &mismatch):
		httpx.JSONError(w, http.StatusBadRequest, "totals_mismatch", mismatch.Fields)
	case errors.As(err, &violations):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations(violations))
	case statusError(w, err):
	default:
		serverError(w, r, err, "invoice request failed")
	}
}

func applyInvoice(p httpx.Patch, inv *models.Invoice, v validation.Violations) {
	patchPointer[uuid.UUID](p, "customer_id", &inv.CustomerID, v)
	patchValue(p, "invoice_date", &inv.InvoiceDate, v)
	patchPointer(p, "due_date", &inv.DueDate, v)
	patchValue(p, "subtotal", &inv.Subtotal, v)
	patchValue(p, "tax_rate", &inv.TaxRate, v)
	patchValue(p, "tax_amount", &inv.TaxAmount, v)
	patchValue(p, "discount_amount", &inv.DiscountAmount, v)
	patchValue(p, "total_amount", &inv.TotalAmount, v)
	patchValue(p, "status", &inv.Status, v)
	patchString(p, "notes", &inv.Notes, v)
	patchString(p, "terms", &inv.Terms, v)

	validation.NonNegative("subtotal", inv.Subtotal, v)
	validation.Percent("tax_rate", inv.TaxRate, v)
	validation.NonNegative("tax_amount", inv.TaxAmount, v)
	validation.NonNegative("discount_amount", inv.DiscountAmount, v)
	validation.NonNegative("total_amount", inv.TotalAmount, v)
	if inv.DueDate != nil && !inv.InvoiceDate.IsZero() && inv.DueDate.Before(inv.InvoiceDate.Time) {
		v.Add("due_date", "before_invoice_date")
	}
}

// validateItems checks submitted lines and drops any client-supplied ids.
func validateItems(items []models.InvoiceItem, v validation.Violations) {
	for i := range items {
		it := &items[i]
		it.Base = models.Base{}
		it.InvoiceID = uuid.Nil
		it.Product = nil
		it.Description = strings.TrimSpace(it.Description)

		key := func(f string) string { return fmt.Sprintf("items[%d].%s", i, f) }
		validation.Required(key("description"), it.Description, v)
		validation.MaxLen(key("description"), it.Description, 500, v)
		validation.Positive(key("quantity"), it.Quantity, v)
		validation.NonNegative(key("unit_price"), it.UnitPrice, v)
		validation.Percent(key("discount_percent"), it.DiscountPercent, v)
		validation.NonNegative(key("amount"), it.Amount, v)
		validation.MaxLen(key("unit"), it.Unit, 50, v)
	}
}
