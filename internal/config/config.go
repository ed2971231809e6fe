// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Business BusinessConfig
	Invoice  InvoiceConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8080"`
	ReadTimeout  int      `envconfig:"SERVER_READ_TIMEOUT" default:"15"` // seconds
	WriteTimeout int      `envconfig:"SERVER_WRITE_TIMEOUT" default:"30"`
	IdleTimeout  int      `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`
	BasePath     string   `envconfig:"API_BASE_PATH"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// DatabaseConfig selects the driver and holds its connection settings.
// URL, when set, wins over the individual postgres fields.
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	URL        string `envconfig:"DATABASE_URL"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"nellusoru"`
	Password   string `envconfig:"DB_PASSWORD" default:"nellusoru"`
	Name       string `envconfig:"DB_NAME" default:"nellusoru_db"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"backoffice.db"`
	Debug      bool   `envconfig:"DB_DEBUG"`
}

// AuthConfig holds token and bootstrap-admin settings.
type AuthConfig struct {
	Secret        string `envconfig:"SECRET_KEY" default:"change-me-in-production"`
	ExpireMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"1440"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@nellusoru.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`
}

// BusinessConfig is printed on invoices and the API root.
type BusinessConfig struct {
	Name        string `envconfig:"BUSINESS_NAME" default:"Nellusoru Manufacturers and Services"`
	Tagline     string `envconfig:"BUSINESS_TAGLINE" default:"Quality Manufacturing & Reliable Services"`
	Phone       string `envconfig:"BUSINESS_PHONE" default:"+91 98765 43210"`
	WhatsApp    string `envconfig:"BUSINESS_WHATSAPP" default:"919876543210"`
	Email       string `envconfig:"BUSINESS_EMAIL" default:"info@nellusoru.com"`
	Address     string `envconfig:"BUSINESS_ADDRESS" default:"Near Karur Road, Kadavur, Karur, Tamil Nadu - 621313"`
	Location    string `envconfig:"BUSINESS_LOCATION" default:"Kadavur, Karur, Tamil Nadu, India"`
	Established int    `envconfig:"BUSINESS_ESTABLISHED" default:"2023"`
}

// InvoiceConfig drives numbering, money display and the totals contract.
type InvoiceConfig struct {
	Prefix         string `envconfig:"INVOICE_PREFIX" default:"NMS"`
	CurrencySymbol string `envconfig:"CURRENCY_SYMBOL" default:"Rs."`
	TotalsMode     string `envconfig:"INVOICE_TOTALS_MODE" default:"ledger"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool   `envconfig:"DEV"`
	Migrations string `envconfig:"MIGRATIONS" default:"auto"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MigrationsAuto = "auto"
	MigrationsSQL  = "sql"
	MigrationsOff  = "off"

	TotalsLedger = "ledger"
	TotalsStrict = "strict"
)

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverPostgres, DriverSQLite}, c.Database.Driver) {
		return errors.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if !slices.Contains([]string{MigrationsAuto, MigrationsSQL, MigrationsOff}, c.App.Migrations) {
		return errors.Errorf("MIGRATIONS must be auto, sql or off, got %q", c.App.Migrations)
	}
	if c.App.Migrations == MigrationsSQL && c.Database.Driver != DriverPostgres {
		return errors.New("MIGRATIONS=sql requires the postgres driver")
	}
	if !slices.Contains([]string{TotalsLedger, TotalsStrict}, c.Invoice.TotalsMode) {
		return errors.Errorf("INVOICE_TOTALS_MODE must be ledger or strict, got %q", c.Invoice.TotalsMode)
	}
	if c.Auth.ExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Invoice.Prefix == "" {
		return errors.New("INVOICE_PREFIX must not be empty")
	}
	return nil
}

// TokenTTL is the access-token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.ExpireMinutes) * time.Minute
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// MigrateURL returns the PostgreSQL connection string in URL format, as
// golang-migrate expects.
func (d DatabaseConfig) MigrateURL() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
