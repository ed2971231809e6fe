package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

type OfferHandler struct {
	DB *gorm.DB
}

func NewOfferHandler(db *gorm.DB) *OfferHandler { return &OfferHandler{DB: db} }

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	activeOnly, ok := queryBool(w, r, "active_only", false)
	if !ok {
		return
	}
	h.list(w, r, activeOnly, r.URL.Query().Get("search"), pg)
}

// Active handles GET /offers/active.
func (h *OfferHandler) Active(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true, "", httpx.Page{Limit: httpx.MaxLimit})
}

func (h *OfferHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool, search string, pg httpx.Page) {
	q := h.DB.WithContext(r.Context()).Model(&models.Offer{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	q = searchAny(q, search, "title", "description")

	offers := []models.Offer{}
	if err := paginate(q.Order("display_order ASC, created_at DESC"), pg).Find(&offers).Error; err != nil {
		serverError(w, r, err, "list offers")
		return
	}
	httpx.JSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var o models.Offer
	if err := h.DB.WithContext(r.Context()).First(&o, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "offer_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	o := models.NewOffer()
	v := validation.Violations{}
	applyOffer(p, o, v)
	if validationFailed(w, v) {
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(o).Error; err != nil {
		serverError(w, r, err, "create offer")
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	tx := h.DB.WithContext(r.Context())
	var o models.Offer
	if err := tx.First(&o, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "offer_not_found")
		return
	}
	v := validation.Violations{}
	applyOffer(p, &o, v)
	if validationFailed(w, v) {
		return
	}
	if err := tx.Save(&o).Error; err != nil {
		serverError(w, r, err, "update offer")
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Toggle handles PATCH /offers/{id}/toggle by flipping is_active.
func (h *OfferHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx := h.DB.WithContext(r.Context())
	var o models.Offer
	if err := tx.First(&o, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "offer_not_found")
		return
	}
	o.IsActive = !o.IsActive
	if err := tx.Model(&o).Update("is_active", o.IsActive).Error; err != nil {
		serverError(w, r, err, "toggle offer")
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res := h.DB.WithContext(r.Context()).Delete(&models.Offer{}, "id = ?", id)
	if res.Error != nil {
		serverError(w, r, res.Error, "delete offer")
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "offer_not_found", nil)
		return
	}
	httpx.Message(w, "Offer deleted successfully")
}

func applyOffer(p httpx.Patch, o *models.Offer, v validation.Violations) {
	patchString(p, "title", &o.Title, v)
	patchString(p, "description", &o.Description, v)
	patchString(p, "image_url", &o.ImageURL, v)
	patchPointer(p, "start_date", &o.StartDate, v)
	patchPointer(p, "end_date", &o.EndDate, v)
	patchPointer(p, "discount_percent", &o.DiscountPercent, v)
	patchValue(p, "is_active", &o.IsActive, v)
	patchValue(p, "display_order", &o.DisplayOrder, v)

	validation.Required("title", o.Title, v)
	validation.MaxLen("title", o.Title, 200, v)
	validation.MaxLen("image_url", o.ImageURL, 500, v)
	if o.DiscountPercent != nil {
		validation.Percent("discount_percent", *o.DiscountPercent, v)
	}
	if o.StartDate != nil && o.EndDate != nil && o.EndDate.Before(o.StartDate.Time) {
		v.Add("end_date", "before_start_date")
	}
}
