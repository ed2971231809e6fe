package policy

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/auth"
	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/handlers"
	"github.com/nellusoru/backoffice/internal/services"
)

// RouterConfig holds the configured handlers and the auth chain the router
// mounts them behind.
type RouterConfig struct {
	AuthGate      *AuthGate
	Authenticator *auth.Authenticator
	Tokens        *auth.TokenIssuer

	AuthHandler      *handlers.AuthHandler
	CategoryHandler  *handlers.CategoryHandler
	ProductHandler   *handlers.ProductHandler
	CustomerHandler  *handlers.CustomerHandler
	OfferHandler     *handlers.OfferHandler
	EnquiryHandler   *handlers.EnquiryHandler
	InvoiceHandler   *handlers.InvoiceHandler
	DashboardHandler *handlers.DashboardHandler

	InvoiceService *services.InvoiceService
}

// NewRouterConfig wires services, handlers and the authorization gate.
// Extra invoice options (a fixed clock in tests) are applied last.
func NewRouterConfig(db *gorm.DB, cfg *config.Config, log logrus.FieldLogger, invoiceOpts ...services.InvoiceOption) *RouterConfig {
	if log == nil {
		log = logrus.StandardLogger()
	}
	authGate := NewAuthGate(db, DefaultCacheTTL, log)
	tokens := auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL())

	opts := append([]services.InvoiceOption{
		services.WithAllocator(services.NewMonthlyAllocator(cfg.Invoice.Prefix)),
		services.WithTotalsPolicy(services.TotalsPolicyFor(cfg.Invoice.TotalsMode)),
		services.WithLogger(log),
	}, invoiceOpts...)
	invoiceService := services.NewInvoiceService(db, opts...)

	pdf := services.NewPDFRenderer(services.BusinessInfo{
		Name:        cfg.Business.Name,
		Tagline:     cfg.Business.Tagline,
		Address:     cfg.Business.Address,
		Phone:       cfg.Business.Phone,
		Email:       cfg.Business.Email,
		Established: cfg.Business.Established,
	}, cfg.Invoice.CurrencySymbol)

	return &RouterConfig{
		AuthGate:      authGate,
		Authenticator: auth.NewAuthenticator(tokens, authGate.VerifyUser),
		Tokens:        tokens,

		AuthHandler:      handlers.NewAuthHandler(db, tokens),
		CategoryHandler:  handlers.NewCategoryHandler(db),
		ProductHandler:   handlers.NewProductHandler(db),
		CustomerHandler:  handlers.NewCustomerHandler(db),
		OfferHandler:     handlers.NewOfferHandler(db),
		EnquiryHandler:   handlers.NewEnquiryHandler(db),
		InvoiceHandler:   handlers.NewInvoiceHandler(invoiceService, pdf),
		DashboardHandler: handlers.NewDashboardHandler(services.NewDashboardService(db)),

		InvoiceService: invoiceService,
	}
}
