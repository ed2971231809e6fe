package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

// defaultFeaturedLimit is the size of the featured strip on the home page.
const defaultFeaturedLimit = 8

type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

// List handles GET /products. Unlike the admin lists, active_only
// defaults to true because the public site calls it unauthenticated.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	activeOnly, ok := queryBool(w, r, "active_only", true)
	if !ok {
		return
	}
	featuredOnly, ok := queryBool(w, r, "featured_only", false)
	if !ok {
		return
	}
	categoryID, ok := queryUUID(w, r, "category_id")
	if !ok {
		return
	}

	q := h.DB.WithContext(r.Context()).Model(&models.Product{}).Preload("Category")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if featuredOnly {
		q = q.Where("is_featured = ?", true)
	}
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if slug := r.URL.Query().Get("category_slug"); slug != "" {
		q = q.Where("category_id IN (?)", h.DB.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	q = searchAny(q, r.URL.Query().Get("search"), "name", "brand", "description")

	products := []models.Product{}
	if err := paginate(q.Order("created_at DESC"), pg).Find(&products).Error; err != nil {
		serverError(w, r, err, "list products")
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

// Featured handles GET /products/featured.
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeaturedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_query", "limit must be a positive integer")
			return
		}
		limit = min(n, httpx.MaxLimit)
	}
	products := []models.Product{}
	err := h.DB.WithContext(r.Context()).Preload("Category").
		Where("is_featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").Limit(limit).Find(&products).Error
	if err != nil {
		serverError(w, r, err, "list featured products")
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p models.Product
	if err := h.DB.WithContext(r.Context()).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "product_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := h.DB.WithContext(r.Context()).Preload("Category").First(&p, "slug = ?", r.PathValue("slug")).Error; err != nil {
		notFoundOr(w, r, err, "product_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodePatch(w, r)
	if !ok {
		return
	}
	p := models.NewProduct()
	v := validation.Violations{}
	applyProduct(body, p, v)
	if validationFailed(w, v) {
		return
	}
	h.save(w, r, p, http.StatusCreated)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, ok := decodePatch(w, r)
	if !ok {
		return
	}
	var p models.Product
	if err := h.DB.WithContext(r.Context()).First(&p, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "product_not_found")
		return
	}
	v := validation.Violations{}
	applyProduct(body, &p, v)
	if validationFailed(w, v) {
		return
	}
	h.save(w, r, &p, http.StatusOK)
}

// save checks the slug and category reference, writes p and answers with
// the reloaded product so category_name is current.
func (h *ProductHandler) save(w http.ResponseWriter, r *http.Request, p *models.Product, status int) {
	tx := h.DB.WithContext(r.Context())
	dup, err := taken(tx, &models.Product{}, "slug", p.Slug, p.ID)
	if err != nil {
		serverError(w, r, err, "save product")
		return
	}
	if dup {
		httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
		return
	}
	if p.CategoryID != nil {
		if err := tx.Select("id").First(&models.Category{}, "id = ?", *p.CategoryID).Error; err != nil {
			if db.IsNotFound(err) {
				httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"category_id": "not_found"})
				return
			}
			serverError(w, r, err, "save product")
			return
		}
	}

	p.Category = nil
	if status == http.StatusCreated {
		err = tx.Omit(clause.Associations).Create(p).Error
	} else {
		err = tx.Omit(clause.Associations).Save(p).Error
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
			return
		}
		serverError(w, r, errors.Wrap(err, "save product"), "save product")
		return
	}

	var out models.Product
	if err := tx.Preload("Category").First(&out, "id = ?", p.ID).Error; err != nil {
		serverError(w, r, err, "reload product")
		return
	}
	httpx.JSON(w, status, out)
}

// Delete removes the product. Invoice lines and enquiries keep their text
// but lose the link.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Select("id").First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.InvoiceItem{}).Where("product_id = ?", id).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Enquiry{}).Where("product_id = ?", id).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		notFoundOr(w, r, err, "product_not_found")
		return
	}
	httpx.Message(w, "Product deleted successfully")
}

func applyProduct(p httpx.Patch, prod *models.Product, v validation.Violations) {
	patchPointer[uuid.UUID](p, "category_id", &prod.CategoryID, v)
	patchString(p, "name", &prod.Name, v)
	patchString(p, "slug", &prod.Slug, v)
	patchString(p, "brand", &prod.Brand, v)
	patchString(p, "description", &prod.Description, v)
	patchString(p, "specifications", &prod.Specifications, v)
	patchString(p, "image_url", &prod.ImageURL, v)
	patchPointer(p, "price", &prod.Price, v)
	patchString(p, "unit", &prod.Unit, v)
	patchValue(p, "min_order_quantity", &prod.MinOrderQty, v)
	patchValue(p, "is_featured", &prod.IsFeatured, v)
	patchValue(p, "is_active", &prod.IsActive, v)

	validation.Required("name", prod.Name, v)
	validation.MaxLen("name", prod.Name, 200, v)
	validation.Required("slug", prod.Slug, v)
	validation.MaxLen("slug", prod.Slug, 200, v)
	validation.Slug("slug", prod.Slug, v)
	validation.MaxLen("brand", prod.Brand, 100, v)
	validation.MaxLen("unit", prod.Unit, 50, v)
	validation.MaxLen("image_url", prod.ImageURL, 500, v)
	if prod.Price != nil {
		validation.NonNegative("price", *prod.Price, v)
	}
	validation.MinInt("min_order_quantity", prod.MinOrderQty, 1, v)
}
