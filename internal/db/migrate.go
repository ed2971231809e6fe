package db

import (
	"embed"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to date. "auto" runs gorm's AutoMigrate,
// "sql" applies the embedded golang-migrate files against PostgreSQL and
// "off" does nothing.
func Migrate(db *gorm.DB, mode string, cfg config.DatabaseConfig, log *logrus.Logger) error {
	switch mode {
	case config.MigrationsOff:
		log.Info("migrations disabled")
		return nil
	case config.MigrationsSQL:
		return runSQLMigrations(cfg.MigrateURL(), log)
	case config.MigrationsAuto, "":
		return AutoMigrate(db)
	default:
		return errors.Errorf("unknown migrations mode %q", mode)
	}
}

// AutoMigrate creates or updates every table from the models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "automigrate %T", m)
		}
	}
	return nil
}

func runSQLMigrations(url string, log *logrus.Logger) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errors.Wrap(err, "open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return errors.Wrap(err, "init migrate")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "read migration version")
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("sql migrations applied")
	return nil
}
