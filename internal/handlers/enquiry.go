package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

type EnquiryHandler struct {
	DB *gorm.DB
}

func NewEnquiryHandler(db *gorm.DB) *EnquiryHandler { return &EnquiryHandler{DB: db} }

func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	q := h.DB.WithContext(r.Context()).Model(&models.Enquiry{})
	if s := r.URL.Query().Get("status_filter"); s != "" {
		status := models.EnquiryStatus(s)
		if !status.Valid() {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
			return
		}
		q = q.Where("status = ?", status)
	}
	q = searchAny(q, r.URL.Query().Get("search"), "name", "subject", "message")

	enquiries := []models.Enquiry{}
	if err := paginate(q.Order("created_at DESC"), pg).Find(&enquiries).Error; err != nil {
		serverError(w, r, err, "list enquiries")
		return
	}
	httpx.JSON(w, http.StatusOK, enquiries)
}

func (h *EnquiryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e models.Enquiry
	if err := h.DB.WithContext(r.Context()).First(&e, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "enquiry_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

// Create handles the public contact form. Every enquiry starts as new.
func (h *EnquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name      string     `json:"name"`
		Email     string     `json:"email"`
		Phone     string     `json:"phone"`
		Company   string     `json:"company"`
		Subject   string     `json:"subject"`
		Message   string     `json:"message"`
		ProductID *uuid.UUID `json:"product_id"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	e := models.Enquiry{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Company:   strings.TrimSpace(in.Company),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		ProductID: in.ProductID,
		Status:    models.EnquiryStatusNew,
	}
	v := validation.Violations{}
	validation.Required("name", e.Name, v)
	validation.MaxLen("name", e.Name, 100, v)
	validation.Email("email", e.Email, v)
	validation.MaxLen("email", e.Email, 100, v)
	validation.Required("phone", e.Phone, v)
	validation.MaxLen("phone", e.Phone, 20, v)
	validation.MaxLen("company", e.Company, 200, v)
	validation.MaxLen("subject", e.Subject, 200, v)
	validation.Required("message", e.Message, v)
	if validationFailed(w, v) {
		return
	}

	tx := h.DB.WithContext(r.Context())
	if e.ProductID != nil {
		if err := tx.Select("id").First(&models.Product{}, "id = ?", *e.ProductID).Error; err != nil {
			if db.IsNotFound(err) {
				httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"product_id": "not_found"})
				return
			}
			serverError(w, r, err, "create enquiry")
			return
		}
	}
	if err := tx.Omit("Product").Create(&e).Error; err != nil {
		serverError(w, r, err, "create enquiry")
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

// Update handles PUT /enquiries/{id}. Only status and notes are editable;
// the submitted contact details are kept as received.
func (h *EnquiryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	v := validation.Violations{}
	var next *models.EnquiryStatus
	patchPointer(p, "status", &next, v)
	notes, setNotes := "", p.Has("notes")
	if setNotes {
		patchString(p, "notes", &notes, v)
	}
	if validationFailed(w, v) {
		return
	}
	h.apply(w, r, id, func(e *models.Enquiry) error {
		if next != nil {
			if err := e.Status.TransitionTo(*next); err != nil {
				return err
			}
			e.Status = *next
		}
		if setNotes {
			e.Notes = notes
		}
		return nil
	})
}

// UpdateStatus handles PATCH /enquiries/{id}/status. The target comes from
// ?new_status= or a {"status": ...} body.
func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("new_status")
	if raw == "" {
		var in struct {
			Status string `json:"status"`
		}
		if err := httpx.DecodeJSON(r, &in); err != nil && !isEmptyBody(err) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		raw = in.Status
	}
	if raw == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"status": "required"})
		return
	}
	next := models.EnquiryStatus(strings.TrimSpace(raw))
	h.apply(w, r, id, func(e *models.Enquiry) error {
		if err := e.Status.TransitionTo(next); err != nil {
			return err
		}
		e.Status = next
		return nil
	})
}

// apply loads the enquiry, runs fn on it and saves the result.
func (h *EnquiryHandler) apply(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(*models.Enquiry) error) {
	tx := h.DB.WithContext(r.Context())
	var e models.Enquiry
	if err := tx.First(&e, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "enquiry_not_found")
		return
	}
	if err := fn(&e); err != nil {
		if statusError(w, err) {
			return
		}
		serverError(w, r, err, "update enquiry")
		return
	}
	if err := tx.Model(&e).Select("status", "notes").Updates(&e).Error; err != nil {
		serverError(w, r, err, "update enquiry")
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.DB.WithContext(r.Context()).Delete(&models.Enquiry{}, "id = ?", id)
	if res.Error != nil {
		serverError(w, r, res.Error, "delete enquiry")
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "enquiry_not_found", nil)
		return
	}
	httpx.Message(w, "Enquiry deleted successfully")
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
