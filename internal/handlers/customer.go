package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

type CustomerHandler struct {
	DB *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler { return &CustomerHandler{DB: db} }

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	activeOnly, ok := queryBool(w, r, "active_only", false)
	if !ok {
		return
	}
	q := h.DB.WithContext(r.Context()).Model(&models.Customer{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	q = searchAny(q, r.URL.Query().Get("search"), "contact_person", "company_name", "phone", "email")

	customers := []models.Customer{}
	if err := paginate(q.Order("created_at DESC"), pg).Find(&customers).Error; err != nil {
		serverError(w, r, err, "list customers")
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c models.Customer
	if err := h.DB.WithContext(r.Context()).First(&c, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "customer_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	c := models.NewCustomer()
	v := validation.Violations{}
	applyCustomer(p, c, v)
	if validationFailed(w, v) {
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(c).Error; err != nil {
		serverError(w, r, err, "create customer")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	tx := h.DB.WithContext(r.Context())
	var c models.Customer
	if err := tx.First(&c, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "customer_not_found")
		return
	}
	v := validation.Violations{}
	applyCustomer(p, &c, v)
	if validationFailed(w, v) {
		return
	}
	if err := tx.Save(&c).Error; err != nil {
		serverError(w, r, err, "update customer")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete removes the customer. Their invoices stay and print as walk-in.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.Select("id").First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Invoice{}).Where("customer_id = ?", id).
			Update("customer_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		notFoundOr(w, r, err, "customer_not_found")
		return
	}
	httpx.Message(w, "Customer deleted successfully")
}

func applyCustomer(p httpx.Patch, c *models.Customer, v validation.Violations) {
	patchString(p, "company_name", &c.CompanyName, v)
	patchString(p, "contact_person", &c.ContactPerson, v)
	patchString(p, "email", &c.Email, v)
	patchString(p, "phone", &c.Phone, v)
	patchString(p, "alternate_phone", &c.AlternatePhone, v)
	patchString(p, "address", &c.Address, v)
	patchString(p, "city", &c.City, v)
	patchString(p, "state", &c.State, v)
	patchString(p, "pincode", &c.Pincode, v)
	patchString(p, "gst_number", &c.GSTNumber, v)
	patchString(p, "notes", &c.Notes, v)
	patchValue(p, "is_active", &c.IsActive, v)

	validation.Required("contact_person", c.ContactPerson, v)
	validation.MaxLen("contact_person", c.ContactPerson, 100, v)
	validation.MaxLen("company_name", c.CompanyName, 200, v)
	validation.Required("phone", c.Phone, v)
	validation.MaxLen("phone", c.Phone, 20, v)
	validation.MaxLen("alternate_phone", c.AlternatePhone, 20, v)
	validation.Email("email", c.Email, v)
	validation.MaxLen("email", c.Email, 100, v)
	validation.MaxLen("city", c.City, 100, v)
	validation.MaxLen("state", c.State, 100, v)
	validation.MaxLen("pincode", c.Pincode, 10, v)
	validation.MaxLen("gst_number", c.GSTNumber, 20, v)
}
