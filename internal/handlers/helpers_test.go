package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nellusoru/backoffice/auth"
	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	return conn
}

// call runs h against a JSON request. vals are path wildcard name/value
// pairs.
func call(h http.HandlerFunc, method, target string, body any, vals ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(vals); i += 2 {
		req.SetPathValue(vals[i], vals[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// callAs is call with uid stored as the authenticated user.
func callAs(uid uuid.UUID, h http.HandlerFunc, method, target string, body any, vals ...string) *httptest.ResponseRecorder {
	return call(func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(auth.WithUserID(r.Context(), uid)))
	}, method, target, body, vals...)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type violationBody struct {
	Error   string                `json:"error"`
	Details validation.Violations `json:"details"`
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[httpx.ErrorResponse](t, w).Error
}

func seedCategory(t *testing.T, conn *gorm.DB, name, slug string, order int) *models.Category {
	t.Helper()
	c := models.NewCategory()
	c.Name, c.Slug, c.DisplayOrder = name, slug, order
	require.NoError(t, conn.Create(c).Error)
	return c
}

func seedProduct(t *testing.T, conn *gorm.DB, name, slug string, category *models.Category) *models.Product {
	t.Helper()
	p := models.NewProduct()
	p.Name, p.Slug = name, slug
	if category != nil {
		p.CategoryID = &category.ID
	}
	require.NoError(t, conn.Omit("Category").Create(p).Error)
	return p
}

func seedCustomer(t *testing.T, conn *gorm.DB, name, phone string) *models.Customer {
	t.Helper()
	c := models.NewCustomer()
	c.ContactPerson, c.Phone = name, phone
	require.NoError(t, conn.Create(c).Error)
	return c
}

func seedUser(t *testing.T, conn *gorm.DB, email, password string, role models.Role, active bool) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role, IsActive: active}
	require.NoError(t, u.SetPassword(password))
	require.NoError(t, conn.Create(u).Error)
	return u
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}
