// Package db opens the database, applies migrations and seeds the
// bootstrap admin.
package db

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/logging"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// Open connects with the configured driver, retrying while the server is
// still starting, and checks the connection with SELECT 1.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	gcfg := &gorm.Config{
		Logger:         logging.Gorm(log, cfg.Debug),
		TranslateError: true,
	}

	var db *gorm.DB
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			if err = Ping(ctx, db); err == nil {
				break
			}
		}
		log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"driver":  cfg.Driver,
		}).Warn("database not ready")
		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "connect database")
		case <-time.After(connectDelay):
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "connect database after %d attempts", connectAttempts)
	}
	log.WithField("driver", cfg.Driver).Info("database connected")
	return db, nil
}

// Dialector picks the gorm driver for cfg.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.SQLitePath)), nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// Ping runs SELECT 1.
func Ping(ctx context.Context, db *gorm.DB) error {
	return errors.Wrap(db.WithContext(ctx).Exec("SELECT 1").Error, "ping database")
}
