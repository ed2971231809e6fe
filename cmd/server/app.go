package main

import (
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/gate"
	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/logging"
	"github.com/nellusoru/backoffice/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	cfg       *config.Config
	routerCfg *policy.RouterConfig
	log       *logrus.Logger
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, cfg *config.Config, routerCfg *policy.RouterConfig, log *logrus.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		cfg:       cfg,
		routerCfg: routerCfg,
		log:       log,
	}
	app.setupRoutes()
	app.handler = app.recoverer(app.requestLogger(app.cors(routerCfg.Authenticator.Middleware(app.mux))))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// route registers h for method and path under API_BASE_PATH.
func (a *App) route(method, path string, h http.HandlerFunc) {
	a.mux.Handle(method+" "+a.cfg.Server.BasePath+path, h)
}

// protect registers h behind authentication and the resource:action check.
func (a *App) protect(method, path, resource string, action gate.Action, h http.HandlerFunc) {
	chain := a.routerCfg.Authenticator.RequireAuth(a.routerCfg.AuthGate.RequirePermission(resource, action)(h))
	a.mux.Handle(method+" "+a.cfg.Server.BasePath+path, chain)
}

func (a *App) setupRoutes() {
	rc := a.routerCfg

	// Service
	a.route("GET", "/{$}", a.root)
	a.route("GET", "/health", a.health)
	a.route("GET", "/healthz", a.healthz)

	// Auth
	ah := rc.AuthHandler
	a.route("POST", "/auth/login", ah.Login)
	a.mux.Handle("GET "+a.cfg.Server.BasePath+"/auth/me", rc.Authenticator.RequireAuth(http.HandlerFunc(ah.Me)))
	a.mux.Handle("POST "+a.cfg.Server.BasePath+"/auth/change-password", rc.Authenticator.RequireAuth(http.HandlerFunc(ah.ChangePassword)))
	a.protect("POST", "/auth/register", policy.ResourceUser, gate.ActionCreate, ah.Register)

	// Categories
	cat := rc.CategoryHandler
	a.route("GET", "/categories", cat.List)
	a.route("GET", "/categories/{id}", cat.Get)
	a.route("GET", "/categories/slug/{slug}", cat.GetBySlug)
	a.protect("POST", "/categories", policy.ResourceCategory, gate.ActionCreate, cat.Create)
	a.protect("PUT", "/categories/{id}", policy.ResourceCategory, gate.ActionUpdate, cat.Update)
	a.protect("DELETE", "/categories/{id}", policy.ResourceCategory, gate.ActionDelete, cat.Delete)

	// Products
	ph := rc.ProductHandler
	a.route("GET", "/products", ph.List)
	a.route("GET", "/products/featured", ph.Featured)
	a.route("GET", "/products/{id}", ph.Get)
	a.route("GET", "/products/slug/{slug}", ph.GetBySlug)
	a.protect("POST", "/products", policy.ResourceProduct, gate.ActionCreate, ph.Create)
	a.protect("PUT", "/products/{id}", policy.ResourceProduct, gate.ActionUpdate, ph.Update)
	a.protect("DELETE", "/products/{id}", policy.ResourceProduct, gate.ActionDelete, ph.Delete)

	// Customers
	ch := rc.CustomerHandler
	a.protect("GET", "/customers", policy.ResourceCustomer, gate.ActionList, ch.List)
	a.protect("GET", "/customers/{id}", policy.ResourceCustomer, gate.ActionView, ch.Get)
	a.protect("POST", "/customers", policy.ResourceCustomer, gate.ActionCreate, ch.Create)
	a.protect("PUT", "/customers/{id}", policy.ResourceCustomer, gate.ActionUpdate, ch.Update)
	a.protect("DELETE", "/customers/{id}", policy.ResourceCustomer, gate.ActionDelete, ch.Delete)

	// Offers
	oh := rc.OfferHandler
	a.route("GET", "/offers", oh.List)
	a.route("GET", "/offers/active", oh.Active)
	a.route("GET", "/offers/{id}", oh.Get)
	a.protect("POST", "/offers", policy.ResourceOffer, gate.ActionCreate, oh.Create)
	a.protect("PUT", "/offers/{id}", policy.ResourceOffer, gate.ActionUpdate, oh.Update)
	a.protect("PATCH", "/offers/{id}/toggle", policy.ResourceOffer, gate.ActionUpdate, oh.Toggle)
	a.protect("DELETE", "/offers/{id}", policy.ResourceOffer, gate.ActionDelete, oh.Delete)

	// Enquiries
	eh := rc.EnquiryHandler
	a.route("POST", "/enquiries", eh.Create)
	a.protect("GET", "/enquiries", policy.ResourceEnquiry, gate.ActionList, eh.List)
	a.protect("GET", "/enquiries/{id}", policy.ResourceEnquiry, gate.ActionView, eh.Get)
	a.protect("PUT", "/enquiries/{id}", policy.ResourceEnquiry, gate.ActionUpdate, eh.Update)
	a.protect("PATCH", "/enquiries/{id}/status", policy.ResourceEnquiry, gate.ActionUpdate, eh.UpdateStatus)
	a.protect("DELETE", "/enquiries/{id}", policy.ResourceEnquiry, gate.ActionDelete, eh.Delete)

	// Invoices
	ih := rc.InvoiceHandler
	a.protect("GET", "/invoices", policy.ResourceInvoice, gate.ActionList, ih.List)
	a.protect("GET", "/invoices/{id}", policy.ResourceInvoice, gate.ActionView, ih.Get)
	a.protect("POST", "/invoices", policy.ResourceInvoice, gate.ActionCreate, ih.Create)
	a.protect("PUT", "/invoices/{id}", policy.ResourceInvoice, gate.ActionUpdate, ih.Update)
	a.protect("DELETE", "/invoices/{id}", policy.ResourceInvoice, gate.ActionDelete, ih.Delete)
	a.protect("GET", "/invoices/{id}/pdf", policy.ResourceInvoice, gate.ActionView, ih.PDFDownload)
	a.protect("POST", "/invoices/{id}/send-whatsapp", policy.ResourceInvoice, gate.ActionSend, ih.SendWhatsApp)

	// Dashboard
	dh := rc.DashboardHandler
	a.protect("GET", "/dashboard/stats", policy.ResourceDashboard, gate.ActionView, dh.Stats)
	a.protect("GET", "/dashboard/recent-invoices", policy.ResourceDashboard, gate.ActionView, dh.RecentInvoices)
	a.protect("GET", "/dashboard/recent-enquiries", policy.ResourceDashboard, gate.ActionView, dh.RecentEnquiries)
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger attaches a request-scoped logger and logs one line per
// request.
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := a.log.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), entry)))
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// recoverer turns a panic into a 500 and logs the stack.
func (a *App) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.log.WithFields(logrus.Fields{
					"panic": rec,
					"path":  r.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("handler panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors answers preflights and sets the allow headers for CORS_ORIGINS.
func (a *App) cors(next http.Handler) http.Handler {
	origins := a.cfg.Server.CORSOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(origins, "*") || slices.Contains(origins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Authorization", "Content-Type"}, ", "))
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Service endpoints
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) root(w http.ResponseWriter, r *http.Request) {
	b := a.cfg.Business
	httpx.JSON(w, http.StatusOK, map[string]any{
		"name":        b.Name,
		"tagline":     b.Tagline,
		"location":    b.Location,
		"established": b.Established,
		"phone":       b.Phone,
		"whatsapp":    b.WhatsApp,
		"email":       b.Email,
	})
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": a.cfg.Business.Name,
	})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), a.db); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("database ping failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "ok",
	})
}
