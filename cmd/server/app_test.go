package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/policy"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BasePath:    "/api",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: "file:" + t.Name() + "?mode=memory&cache=shared",
		},
		Auth: config.AuthConfig{
			Secret:        "test-secret",
			ExpireMinutes: 60,
			AdminEmail:    "admin@example.com",
			AdminPassword: "admin-password",
		},
		Business: config.BusinessConfig{Name: "Nellusoru Manufacturers and Services", Established: 2023},
		Invoice: config.InvoiceConfig{
			Prefix:         "NMS",
			CurrencySymbol: "Rs.",
			TotalsMode:     config.TotalsLedger,
		},
		App: config.AppConfig{Migrations: config.MigrationsAuto},
	}
}

func newTestApp(t *testing.T) (*App, *logtest.Hook) {
	t.Helper()
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())
	log, hook := logtest.NewNullLogger()
	conn, err := db.Open(context.Background(), cfg.Database, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn, cfg.App.Migrations, cfg.Database, log))
	_, err = db.SeedAdmin(context.Background(), conn, cfg.Auth, log)
	require.NoError(t, err)
	return NewApp(conn, cfg, policy.NewRouterConfig(conn, cfg, log), log), hook
}

func do(app http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, app http.Handler, email, password string) string {
	t.Helper()
	w := do(app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.AccessToken
}

func TestServiceEndpoints(t *testing.T) {
	app, hook := newTestApp(t)

	w := do(app, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"Nellusoru Manufacturers and Services"}`, w.Body.String())

	w = do(app, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"ok"}`, w.Body.String())

	w = do(app, http.MethodGet, "/api/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"established":2023`)

	w = do(app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "routes live under the base path")

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "request", last.Message)
	assert.Equal(t, http.StatusNotFound, last.Data["status"])
	assert.NotEmpty(t, last.Data["request_id"])
}

func TestRouteProtection(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/api/products", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/api/offers/active", "", nil).Code)

	w := do(app, http.MethodGet, "/api/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, http.StatusUnauthorized, do(app, http.MethodGet, "/api/customers", "garbage", nil).Code)

	admin := login(t, app, "admin@example.com", "admin-password")
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/api/customers", admin, nil).Code)
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/api/auth/me", admin, nil).Code)

	w = do(app, http.MethodPost, "/api/auth/register", admin, map[string]string{
		"email": "staff@example.com", "password": "staff-password", "role": "staff",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	staff := login(t, app, "staff@example.com", "staff-password")
	w = do(app, http.MethodPost, "/api/auth/register", staff, map[string]string{
		"email": "other@example.com", "password": "other-password",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(app, http.MethodPost, "/api/categories", staff, map[string]string{"name": "Pumps", "slug": "pumps"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, do(app, http.MethodGet, "/api/dashboard/stats", staff, nil).Code)

	w = do(app, http.MethodPost, "/api/enquiries", "", map[string]string{
		"name": "Ravi", "phone": "9000000000", "message": "Need a quote",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(app, http.MethodGet, "/api/enquiries", "", nil).Code)
}

func TestInvoiceThroughRouter(t *testing.T) {
	app, _ := newTestApp(t)
	admin := login(t, app, "admin@example.com", "admin-password")

	w := do(app, http.MethodPost, "/api/invoices", admin, map[string]any{
		"total_amount": "1050.00",
		"items": []map[string]string{
			{"description": "Widget", "quantity": "10", "unit_price": "100", "amount": "1000"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv struct {
		ID            string `json:"id"`
		InvoiceNumber string `json:"invoice_number"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Regexp(t, `^NMS-\d{6}-0001$`, inv.InvoiceNumber)

	w = do(app, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = do(app, http.MethodPost, "/api/invoices/"+inv.ID+"/send-whatsapp?phone_number=9876543210", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://wa.me/9876543210")
}

func TestCORSPreflight(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	app.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	app, hook := newTestApp(t)
	app.mux.HandleFunc("GET /api/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	w := do(app, http.MethodGet, "/api/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "handler panicked" {
			found = true
			assert.Equal(t, "boom", e.Data["panic"])
		}
	}
	assert.True(t, found)
}
