package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nellusoru/backoffice/internal/models"
)

func TestCategoryCRUD(t *testing.T) {
	conn := setupTestDB(t)
	h := NewCategoryHandler(conn)

	w := call(h.Create, http.MethodPost, "/categories", map[string]any{
		"name":          "Pumps",
		"slug":          "pumps",
		"display_order": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Category](t, w)
	assert.True(t, created.IsActive, "is_active defaults to true")
	assert.Equal(t, 2, created.DisplayOrder)

	w = call(h.GetBySlug, http.MethodGet, "/categories/slug/pumps", nil, "slug", "pumps")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[models.Category](t, w).ID)

	w = call(h.Update, http.MethodPut, "/categories/"+created.ID.String(),
		`{"description":"Water pumps","is_active":false}`, "id", created.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Category](t, w)
	assert.Equal(t, "Pumps", updated.Name, "absent keys are kept")
	assert.Equal(t, "Water pumps", updated.Description)
	assert.False(t, updated.IsActive)

	w = call(h.Update, http.MethodPut, "/categories/"+created.ID.String(),
		`{"description":null}`, "id", created.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.Category](t, w).Description, "null clears")

	w = call(h.Delete, http.MethodDelete, "/categories/"+created.ID.String(), nil, "id", created.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Category deleted successfully"}`, w.Body.String())

	w = call(h.Get, http.MethodGet, "/categories/"+created.ID.String(), nil, "id", created.ID.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "category_not_found", errorCode(t, w))
}

func TestCategoryValidation(t *testing.T) {
	conn := setupTestDB(t)
	h := NewCategoryHandler(conn)

	w := call(h.Create, http.MethodPost, "/categories", `{"slug":"Bad Slug"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[violationBody](t, w)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, "required", body.Details["name"])
	assert.Equal(t, "invalid_slug", body.Details["slug"])

	w = call(h.Create, http.MethodPost, "/categories", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", errorCode(t, w))

	w = call(h.Get, http.MethodGet, "/categories/nope", nil, "id", "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", errorCode(t, w))
}

func TestCategoryListOrderAndSearch(t *testing.T) {
	conn := setupTestDB(t)
	h := NewCategoryHandler(conn)
	seedCategory(t, conn, "Valves", "valves", 3)
	seedCategory(t, conn, "Motors", "motors", 1)
	inactive := seedCategory(t, conn, "Pipes", "pipes", 2)
	require.NoError(t, conn.Model(inactive).Update("is_active", false).Error)

	w := call(h.List, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	for _, c := range decode[[]models.Category](t, w) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Motors", "Pipes", "Valves"}, names)

	w = call(h.List, http.MethodGet, "/categories?active_only=true", nil)
	assert.Len(t, decode[[]models.Category](t, w), 2)

	w = call(h.List, http.MethodGet, "/categories?search=MOT", nil)
	got := decode[[]models.Category](t, w)
	require.Len(t, got, 1)
	assert.Equal(t, "Motors", got[0].Name)

	w = call(h.List, http.MethodGet, "/categories?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_query", errorCode(t, w))
}

func TestDuplicateSlugCreatesNothing(t *testing.T) {
	conn := setupTestDB(t)
	seedCategory(t, conn, "Pumps", "pumps", 0)
	seedProduct(t, conn, "Pump A", "pump-a", nil)

	w := call(NewCategoryHandler(conn).Create, http.MethodPost, "/categories", `{"name":"Other","slug":"pumps"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slug_already_exists", errorCode(t, w))
	assert.EqualValues(t, 1, count(t, conn, &models.Category{}))

	w = call(NewProductHandler(conn).Create, http.MethodPost, "/products", `{"name":"Other","slug":"pump-a"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slug_already_exists", errorCode(t, w))
	assert.EqualValues(t, 1, count(t, conn, &models.Product{}))
}

func TestProductCreateCarriesCategoryName(t *testing.T) {
	conn := setupTestDB(t)
	cat := seedCategory(t, conn, "Motors", "motors", 0)
	h := NewProductHandler(conn)

	w := call(h.Create, http.MethodPost, "/products", map[string]any{
		"name":        "Induction Motor 5HP",
		"slug":        "induction-motor-5hp",
		"brand":       "Kirloskar",
		"category_id": cat.ID,
		"price":       "18500.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Product](t, w)
	require.NotNil(t, p.CategoryName)
	assert.Equal(t, "Motors", *p.CategoryName)
	assert.Equal(t, 1, p.MinOrderQty)
	require.NotNil(t, p.Price)
	assert.Equal(t, "18500", p.Price.String())

	w = call(h.Update, http.MethodPut, "/products/"+p.ID.String(), `{"category_id":null,"price":null}`, "id", p.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p = decode[models.Product](t, w)
	assert.Nil(t, p.CategoryID)
	assert.Nil(t, p.CategoryName)
	assert.Nil(t, p.Price)

	w = call(h.Create, http.MethodPost, "/products", `{"name":"X","slug":"x","category_id":"00000000-0000-0000-0000-000000000001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", errorCode(t, w))
}

func TestProductListFilters(t *testing.T) {
	conn := setupTestDB(t)
	motors := seedCategory(t, conn, "Motors", "motors", 0)
	pumps := seedCategory(t, conn, "Pumps", "pumps", 1)
	seedProduct(t, conn, "Motor A", "motor-a", motors)
	featured := seedProduct(t, conn, "Pump B", "pump-b", pumps)
	require.NoError(t, conn.Model(featured).Update("is_featured", true).Error)
	hidden := seedProduct(t, conn, "Pump C", "pump-c", pumps)
	require.NoError(t, conn.Model(hidden).Update("is_active", false).Error)
	h := NewProductHandler(conn)

	names := func(target string) []string {
		w := call(h.List, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []string
		for _, p := range decode[[]models.Product](t, w) {
			out = append(out, p.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Motor A", "Pump B"}, names("/products"))
	assert.ElementsMatch(t, []string{"Motor A", "Pump B", "Pump C"}, names("/products?active_only=false"))
	assert.ElementsMatch(t, []string{"Pump B"}, names("/products?category_slug=pumps"))
	assert.ElementsMatch(t, []string{"Motor A"}, names("/products?category_id="+motors.ID.String()))
	assert.ElementsMatch(t, []string{"Pump B"}, names("/products?featured_only=true"))
	assert.ElementsMatch(t, []string{"Motor A"}, names("/products?search=motor"))

	w := call(h.Featured, http.MethodGet, "/products/featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]models.Product](t, w)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].CategoryName)
	assert.Equal(t, "Pumps", *got[0].CategoryName)
}

func TestDeleteDetachesReferences(t *testing.T) {
	conn := setupTestDB(t)
	cat := seedCategory(t, conn, "Motors", "motors", 0)
	prod := seedProduct(t, conn, "Motor A", "motor-a", cat)
	enq := models.Enquiry{Name: "Ravi", Phone: "9000000000", Message: "price?", ProductID: &prod.ID, Status: models.EnquiryStatusNew}
	require.NoError(t, conn.Omit("Product").Create(&enq).Error)

	w := call(NewCategoryHandler(conn).Delete, http.MethodDelete, "/", nil, "id", cat.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", prod.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	w = call(NewProductHandler(conn).Delete, http.MethodDelete, "/", nil, "id", prod.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var e models.Enquiry
	require.NoError(t, conn.First(&e, "id = ?", enq.ID).Error)
	assert.Nil(t, e.ProductID)

	w = call(NewProductHandler(conn).Delete, http.MethodDelete, "/", nil, "id", prod.ID.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product_not_found", errorCode(t, w))
}
