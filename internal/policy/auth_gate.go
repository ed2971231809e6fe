package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/auth"
	"github.com/nellusoru/backoffice/gate"
	"github.com/nellusoru/backoffice/httpx"
)

// DefaultCacheTTL is how long a resolved profile is reused.
const DefaultCacheTTL = 5 * time.Minute

// AuthGate is the central authorization point. It resolves the current
// user's role through a TTL cache in front of the database.
type AuthGate struct {
	Gate          *gate.Gate[uuid.UUID]
	CacheResolver *gate.CachedResolver[uuid.UUID]
	Log           logrus.FieldLogger
}

// NewAuthGate creates a gate backed by db with the default role table.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration, log logrus.FieldLogger) *AuthGate {
	return NewAuthGateWithResolver(NewDBRoleResolver(db, DefaultRoles()), cacheTTL, log)
}

func NewAuthGateWithResolver(resolver gate.Resolver[uuid.UUID], cacheTTL time.Duration, log logrus.FieldLogger) *AuthGate {
	cached := gate.NewCachedResolver[uuid.UUID](resolver, cacheTTL)
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthGate{
		Gate:          gate.New[uuid.UUID](cached),
		CacheResolver: cached,
		Log:           log,
	}
}

// Authorize checks whether the user in ctx may perform action on resource.
func (ag *AuthGate) Authorize(ctx context.Context, resource string, action gate.Action) error {
	uid, _ := auth.UserIDFromContext(ctx)
	return ag.Gate.Authorize(ctx, uid, resource, action)
}

// VerifyUser reports whether uid still maps to an active user with a role.
// It plugs into auth.Authenticator.
func (ag *AuthGate) VerifyUser(ctx context.Context, uid uuid.UUID) bool {
	p, err := ag.CacheResolver.Resolve(ctx, uid)
	if err != nil {
		ag.Log.WithError(err).WithField("user_id", uid).Error("verify user")
		return false
	}
	return p != nil
}

// InvalidateUser drops the cached profile of one user.
func (ag *AuthGate) InvalidateUser(uid uuid.UUID) {
	ag.CacheResolver.Invalidate(uid)
}

// RequirePermission returns middleware answering 401 without a user and
// 403 without the capability.
func (ag *AuthGate) RequirePermission(resource string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := ag.Authorize(r.Context(), resource, action)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, gate.ErrUnauthenticated):
				auth.Challenge(w, "unauthorized")
			case errors.Is(err, gate.ErrForbidden):
				httpx.JSONError(w, http.StatusForbidden, "forbidden", map[string]string{
					"required": string(gate.NewPermission(resource, action)),
				})
			default:
				ag.Log.WithError(err).WithField("path", r.URL.Path).Error("authorization failed")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		})
	}
}
