package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/auth"
	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/logging"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/validation"
)

// MinPasswordLength applies to registration and password changes.
const MinPasswordLength = 8

type AuthHandler struct {
	DB     *gorm.DB
	Tokens *auth.TokenIssuer
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{DB: db, Tokens: tokens}
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	log := logging.FromContext(r.Context()).WithField("email", email)

	var u models.User
	if err := h.DB.WithContext(r.Context()).First(&u, "email = ?", email).Error; err != nil {
		if !db.IsNotFound(err) {
			serverError(w, r, err, "load user")
			return
		}
		log.Warn("login failed")
		auth.Challenge(w, "invalid_credentials")
		return
	}
	if !u.CheckPassword(in.Password) {
		log.Warn("login failed")
		auth.Challenge(w, "invalid_credentials")
		return
	}
	if !u.IsActive {
		log.Warn("login by inactive user")
		auth.Challenge(w, "inactive_user")
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		serverError(w, r, err, "issue token")
		return
	}
	log.WithField("user_id", u.ID).Info("user logged in")
	httpx.JSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

// Register handles POST /auth/register. Route wiring restricts it to
// holders of user:create.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		FullName string      `json:"full_name"`
		Role     models.Role `json:"role"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	u := models.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		FullName: strings.TrimSpace(in.FullName),
		Role:     in.Role,
		IsActive: true,
	}
	if u.Role == "" {
		u.Role = models.RoleAdmin
	}

	v := validation.Violations{}
	validation.Required("email", u.Email, v)
	validation.Email("email", u.Email, v)
	validation.MaxLen("email", u.Email, 100, v)
	validation.MaxLen("full_name", u.FullName, 100, v)
	if len(in.Password) < MinPasswordLength {
		v.Add("password", "too_short")
	}
	if !u.Role.Valid() {
		v.Add("role", "invalid")
	}
	if validationFailed(w, v) {
		return
	}

	tx := h.DB.WithContext(r.Context())
	if dup, err := taken(tx, &models.User{}, "email", u.Email, u.ID); err != nil {
		serverError(w, r, err, "register user")
		return
	} else if dup {
		httpx.JSONError(w, http.StatusBadRequest, "email_already_exists", nil)
		return
	}
	if err := u.SetPassword(in.Password); err != nil {
		serverError(w, r, err, "register user")
		return
	}
	if err := tx.Create(&u).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.JSONError(w, http.StatusBadRequest, "email_already_exists", nil)
			return
		}
		serverError(w, r, err, "register user")
		return
	}
	logging.FromContext(r.Context()).WithFields(logrus.Fields{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("user registered")
	httpx.JSON(w, http.StatusCreated, u)
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.NewPassword) < MinPasswordLength {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{"new_password": "too_short"})
		return
	}
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !u.CheckPassword(in.OldPassword) {
		httpx.JSONError(w, http.StatusBadRequest, "incorrect_password", nil)
		return
	}
	if err := u.SetPassword(in.NewPassword); err != nil {
		serverError(w, r, err, "change password")
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(u).Update("password_hash", u.PasswordHash).Error; err != nil {
		serverError(w, r, err, "change password")
		return
	}
	logging.FromContext(r.Context()).WithField("user_id", u.ID).Info("password changed")
	httpx.Message(w, "Password changed successfully")
}

func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		auth.Challenge(w, "unauthorized")
		return nil, false
	}
	var u models.User
	if err := h.DB.WithContext(r.Context()).First(&u, "id = ?", uid).Error; err != nil {
		if db.IsNotFound(err) {
			auth.Challenge(w, "unauthorized")
			return nil, false
		}
		serverError(w, r, err, "load current user")
		return nil, false
	}
	return &u, true
}
