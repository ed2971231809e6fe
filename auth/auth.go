// Package auth issues and verifies bearer tokens and carries the
// authenticated user through the request context.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nellusoru/backoffice/httpx"
)

type ctxKey string

const (
	userIDCtxKey = ctxKey("userID")
	claimsCtxKey = ctxKey("claims")
)

// UserVerifier reports whether a token's subject may still use the API
// (the user exists and is active).
type UserVerifier func(ctx context.Context, uid uuid.UUID) bool

// WithUserID stores the user id in ctx.
func WithUserID(ctx context.Context, uid uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDCtxKey, uid)
}

// UserIDFromContext extracts the user id stored by Middleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// ClaimsFromContext returns the parsed token claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok
}

// Authenticator wires token parsing and user verification into HTTP middleware.
type Authenticator struct {
	tokens   *TokenIssuer
	verifier UserVerifier
}

func NewAuthenticator(tokens *TokenIssuer, verifier UserVerifier) *Authenticator {
	return &Authenticator{tokens: tokens, verifier: verifier}
}

// Middleware attaches the user id and claims to the request context when a
// valid bearer token is present. It never rejects a request by itself.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			if claims, err := a.tokens.Parse(raw); err == nil {
				if uid, err := claims.UserID(); err == nil {
					ctx := withClaims(WithUserID(r.Context(), uid), claims)
					r = r.WithContext(ctx)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 with a Bearer challenge unless the request
// carries a valid token for a user the verifier still accepts.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok || (a.verifier != nil && !a.verifier(r.Context(), uid)) {
			Challenge(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Challenge writes a 401 with the WWW-Authenticate header set.
func Challenge(w http.ResponseWriter, code string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httpx.JSONError(w, http.StatusUnauthorized, code, nil)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
