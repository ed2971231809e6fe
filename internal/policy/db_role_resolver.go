package policy

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/gate"
	"github.com/nellusoru/backoffice/internal/models"
)

// DBRoleResolver resolves a user id to the profile of the user's role.
// Unknown, inactive or role-less users resolve to no profile.
type DBRoleResolver struct {
	DB    *gorm.DB
	Roles gate.RoleTable
}

func NewDBRoleResolver(db *gorm.DB, roles gate.RoleTable) *DBRoleResolver {
	return &DBRoleResolver{DB: db, Roles: roles}
}

func (r *DBRoleResolver) Resolve(ctx context.Context, userID uuid.UUID) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "is_active").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resolve user role")
	}
	if !user.IsActive {
		return nil, nil
	}
	p, ok := r.Roles.Lookup(string(user.Role))
	if !ok {
		return nil, nil
	}
	return p, nil
}
