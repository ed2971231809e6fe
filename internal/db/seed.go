package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/config"
	"github.com/nellusoru/backoffice/internal/models"
)

// SeedAdmin creates the bootstrap admin account when ADMIN_PASSWORD is set
// and no user with ADMIN_EMAIL exists yet. It reports whether a user was
// created.
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg config.AuthConfig, log *logrus.Logger) (bool, error) {
	if cfg.AdminPassword == "" {
		log.Debug("ADMIN_PASSWORD not set, skipping admin seed")
		return false, nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "look up admin")
	}
	if count > 0 {
		return false, nil
	}

	admin := &models.User{
		Email:    email,
		FullName: cfg.AdminName,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return false, err
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return false, errors.Wrap(err, "create admin")
	}
	log.WithField("email", admin.Email).Info("admin user created")
	return true, nil
}
