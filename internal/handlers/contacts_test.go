package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nellusoru/backoffice/internal/models"
)

func TestCustomerLifecycle(t *testing.T) {
	conn := setupTestDB(t)
	h := NewCustomerHandler(conn)

	w := call(h.Create, http.MethodPost, "/customers", `{"contact_person":"Acme Traders","phone":"+91 98765 43210","email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_email", decode[violationBody](t, w).Details["email"])

	w = call(h.Create, http.MethodPost, "/customers", map[string]any{
		"contact_person": "Acme Traders",
		"company_name":   "Acme Pvt Ltd",
		"phone":          "+91 98765 43210",
		"city":           "Karur",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[models.Customer](t, w)
	assert.True(t, c.IsActive)

	w = call(h.Update, http.MethodPut, "/", `{"contact_person":null}`, "id", c.ID.String())
	assert.Equal(t, http.StatusBadRequest, w.Code, "contact_person cannot be cleared")

	w = call(h.Update, http.MethodPut, "/", `{"gst_number":"33ABCDE1234F1Z5"}`, "id", c.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "33ABCDE1234F1Z5", decode[models.Customer](t, w).GSTNumber)

	w = call(h.List, http.MethodGet, "/customers?search=acme%20pvt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Customer](t, w), 1)

	inv := models.Invoice{InvoiceNumber: "NMS-202403-0001", CustomerID: &c.ID, InvoiceDate: models.NewDate(2024, time.March, 1), Status: models.InvoiceStatusDraft}
	require.NoError(t, conn.Omit("Customer", "Items").Create(&inv).Error)

	w = call(h.Delete, http.MethodDelete, "/", nil, "id", c.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Customer deleted successfully"}`, w.Body.String())

	var kept models.Invoice
	require.NoError(t, conn.First(&kept, "id = ?", inv.ID).Error)
	assert.Nil(t, kept.CustomerID, "invoice survives as walk-in")
}

func TestCustomerListNewestFirst(t *testing.T) {
	conn := setupTestDB(t)
	first := seedCustomer(t, conn, "First", "1")
	second := seedCustomer(t, conn, "Second", "2")
	require.NoError(t, conn.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)

	w := call(NewCustomerHandler(conn).List, http.MethodGet, "/customers?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]models.Customer](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	w = call(NewCustomerHandler(conn).List, http.MethodGet, "/customers?skip=1", nil)
	got = decode[[]models.Customer](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, first.ID, got[0].ID)
}

func TestOfferDatesAndToggle(t *testing.T) {
	conn := setupTestDB(t)
	h := NewOfferHandler(conn)

	w := call(h.Create, http.MethodPost, "/offers", `{"title":"Diwali","start_date":"2024-11-01","end_date":"2024-10-01"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "before_start_date", decode[violationBody](t, w).Details["end_date"])

	w = call(h.Create, http.MethodPost, "/offers", `{"title":"Diwali","discount_percent":"150"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "out_of_range", decode[violationBody](t, w).Details["discount_percent"])

	w = call(h.Create, http.MethodPost, "/offers", `{"title":"Diwali","start_date":"2024-10-01","end_date":"2024-11-01","discount_percent":"10"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[models.Offer](t, w)
	require.NotNil(t, o.EndDate)
	assert.Equal(t, "2024-11-01", o.EndDate.String())

	w = call(h.Toggle, http.MethodPatch, "/", nil, "id", o.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.Offer](t, w).IsActive)

	w = call(h.Active, http.MethodGet, "/offers/active", nil)
	assert.Empty(t, decode[[]models.Offer](t, w))

	w = call(h.Toggle, http.MethodPatch, "/", nil, "id", o.ID.String())
	assert.True(t, decode[models.Offer](t, w).IsActive)

	w = call(h.Active, http.MethodGet, "/offers/active", nil)
	assert.Len(t, decode[[]models.Offer](t, w), 1)

	w = call(h.Update, http.MethodPut, "/", `{"end_date":null}`, "id", o.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[models.Offer](t, w).EndDate)

	w = call(h.Delete, http.MethodDelete, "/", nil, "id", o.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	w = call(h.Delete, http.MethodDelete, "/", nil, "id", o.ID.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "offer_not_found", errorCode(t, w))
}

func TestEnquiryFlow(t *testing.T) {
	conn := setupTestDB(t)
	h := NewEnquiryHandler(conn)

	w := call(h.Create, http.MethodPost, "/enquiries", `{"name":"Ravi","phone":"9000000000"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required", decode[violationBody](t, w).Details["message"])

	w = call(h.Create, http.MethodPost, "/enquiries", `{"name":"Ravi","phone":"9000000000","subject":"Motor quote","message":"Need a 5HP motor","status":"resolved"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	e := decode[models.Enquiry](t, w)
	assert.Equal(t, models.EnquiryStatusNew, e.Status, "status is not client-settable on create")

	w = call(h.UpdateStatus, http.MethodPatch, "/?new_status=read", nil, "id", e.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.EnquiryStatusRead, decode[models.Enquiry](t, w).Status)

	w = call(h.UpdateStatus, http.MethodPatch, "/", `{"status":"new"}`, "id", e.ID.String())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_status_transition", errorCode(t, w))
	assert.JSONEq(t, `{"error":"invalid_status_transition","details":{"from":"read","to":"new","allowed":["replied","resolved"]}}`, w.Body.String())

	w = call(h.UpdateStatus, http.MethodPatch, "/", `{"status":"archived"}`, "id", e.ID.String())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_status", errorCode(t, w))

	w = call(h.UpdateStatus, http.MethodPatch, "/", nil, "id", e.ID.String())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(h.Update, http.MethodPut, "/", `{"status":"replied","notes":"Quoted 18,500","name":"Changed"}`, "id", e.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[models.Enquiry](t, w)
	assert.Equal(t, models.EnquiryStatusReplied, got.Status)
	assert.Equal(t, "Quoted 18,500", got.Notes)
	assert.Equal(t, "Ravi", got.Name, "contact details are read-only")

	w = call(h.List, http.MethodGet, "/enquiries?status_filter=replied", nil)
	assert.Len(t, decode[[]models.Enquiry](t, w), 1)
	w = call(h.List, http.MethodGet, "/enquiries?status_filter=new", nil)
	assert.Empty(t, decode[[]models.Enquiry](t, w))
	w = call(h.List, http.MethodGet, "/enquiries?search=5hp", nil)
	assert.Len(t, decode[[]models.Enquiry](t, w), 1)

	w = call(h.Delete, http.MethodDelete, "/", nil, "id", e.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Enquiry deleted successfully"}`, w.Body.String())
}
