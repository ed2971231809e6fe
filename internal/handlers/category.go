package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler { return &CategoryHandler{DB: db} }

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	pg, ok := listPage(w, r)
	if !ok {
		return
	}
	activeOnly, ok := queryBool(w, r, "active_only", false)
	if !ok {
		return
	}
	q := h.DB.WithContext(r.Context()).Model(&models.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	q = searchAny(q, r.URL.Query().Get("search"), "name", "description")

	categories := []models.Category{}
	if err := paginate(q.Order("display_order ASC, name ASC"), pg).Find(&categories).Error; err != nil {
		serverError(w, r, err, "list categories")
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c models.Category
	if err := h.DB.WithContext(r.Context()).First(&c, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "category_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := h.DB.WithContext(r.Context()).First(&c, "slug = ?", r.PathValue("slug")).Error; err != nil {
		notFoundOr(w, r, err, "category_not_found")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	c := models.NewCategory()
	v := validation.Violations{}
	applyCategory(p, c, v)
	if validationFailed(w, v) {
		return
	}
	tx := h.DB.WithContext(r.Context())
	if dup, err := taken(tx, &models.Category{}, "slug", c.Slug, c.ID); err != nil {
		serverError(w, r, err, "create category")
		return
	} else if dup {
		httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
		return
	}
	if err := tx.Create(c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
			return
		}
		serverError(w, r, err, "create category")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := decodePatch(w, r)
	if !ok {
		return
	}
	tx := h.DB.WithContext(r.Context())
	var c models.Category
	if err := tx.First(&c, "id = ?", id).Error; err != nil {
		notFoundOr(w, r, err, "category_not_found")
		return
	}
	v := validation.Violations{}
	applyCategory(p, &c, v)
	if validationFailed(w, v) {
		return
	}
	if dup, err := taken(tx, &models.Category{}, "slug", c.Slug, c.ID); err != nil {
		serverError(w, r, err, "update category")
		return
	} else if dup {
		httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
		return
	}
	if err := tx.Save(&c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.JSONError(w, http.StatusBadRequest, "slug_already_exists", nil)
			return
		}
		serverError(w, r, err, "update category")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

// Delete removes the category and detaches its products.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.Select("id").First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		notFoundOr(w, r, err, "category_not_found")
		return
	}
	httpx.Message(w, "Category deleted successfully")
}

func applyCategory(p httpx.Patch, c *models.Category, v validation.Violations) {
	patchString(p, "name", &c.Name, v)
	patchString(p, "slug", &c.Slug, v)
	patchString(p, "description", &c.Description, v)
	patchString(p, "image_url", &c.ImageURL, v)
	patchValue(p, "is_active", &c.IsActive, v)
	patchValue(p, "display_order", &c.DisplayOrder, v)

	validation.Required("name", c.Name, v)
	validation.MaxLen("name", c.Name, 100, v)
	validation.Required("slug", c.Slug, v)
	validation.MaxLen("slug", c.Slug, 100, v)
	validation.Slug("slug", c.Slug, v)
	validation.MaxLen("image_url", c.ImageURL, 500, v)
}
