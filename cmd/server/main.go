package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/logging"
	"github.com/nellusoru/backoffice/internal/policy"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "backoffice",
		Usage:  "catalog, enquiry and invoicing API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations (per MIGRATIONS), seed the admin and serve HTTP",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrateOnly,
			},
			{
				Name:   "seed",
				Usage:  "create the bootstrap admin from ADMIN_EMAIL/ADMIN_PASSWORD and exit",
				Action: seedOnly,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("backoffice failed")
	}
}

// bootstrap loads configuration, builds the logger and connects.
func bootstrap(ctx context.Context) (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cfg.App.LogLevel, cfg.App.Dev)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())

	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"host":   cfg.Database.Host,
		"dbname": cfg.Database.Name,
	}).Info("connecting to database")
	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "connect database")
	}
	return cfg, log, conn, nil
}

func migrateOnly(c *cli.Context) error {
	cfg, log, conn, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	mode := cfg.App.Migrations
	if mode == config.MigrationsOff {
		mode = config.MigrationsAuto
	}
	if err := db.Migrate(conn, mode, cfg.Database, log); err != nil {
		return errors.Wrap(err, "migrate")
	}
	log.Info("migrations completed")
	return nil
}

func seedOnly(c *cli.Context) error {
	cfg, log, conn, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	if _, err := db.SeedAdmin(c.Context, conn, cfg.Auth, log); err != nil {
		return errors.Wrap(err, "seed")
	}
	log.Info("seeding completed")
	return nil
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, conn, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn, cfg.App.Migrations, cfg.Database, log); err != nil {
		return errors.Wrap(err, "migrate")
	}
	if _, err := db.SeedAdmin(ctx, conn, cfg.Auth, log); err != nil {
		return errors.Wrap(err, "seed")
	}

	routerCfg := policy.NewRouterConfig(conn, cfg, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(conn, cfg, routerCfg, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":      cfg.Server.Port,
			"base_path": cfg.Server.BasePath,
			"dev":       cfg.App.Dev,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
	return nil
}
