// Package handlers implements the JSON resource routers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/logging"
	"github.com/nellusoru/backoffice/internal/models"
	"github.com/nellusoru/backoffice/internal/services"
	"github.com/nellusoru/backoffice/validation"
)

// serverError logs err with the request logger and answers 500 without
// leaking the cause.
func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.FromContext(r.Context()).WithError(err).Error(msg)
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func listPage(w http.ResponseWriter, r *http.Request) (httpx.Page, bool) {
	pg, err := httpx.ParsePage(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return pg, false
	}
	return pg, true
}

func queryBool(w http.ResponseWriter, r *http.Request, key string, def bool) (bool, bool) {
	v, err := httpx.QueryBool(r, key, def)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return def, false
	}
	return v, true
}

func queryUUID(w http.ResponseWriter, r *http.Request, key string) (*uuid.UUID, bool) {
	v, err := httpx.QueryUUID(r, key)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return nil, false
	}
	return v, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func decodePatch(w http.ResponseWriter, r *http.Request) (httpx.Patch, bool) {
	p, err := httpx.DecodePatch(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return nil, false
	}
	return p, true
}

func validationFailed(w http.ResponseWriter, v validation.Violations) bool {
	if v.Empty() {
		return false
	}
	httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
	return true
}

// notFoundOr answers 404 code for a missing record and 500 otherwise.
func notFoundOr(w http.ResponseWriter, r *http.Request, err error, code string) {
	if db.IsNotFound(err) {
		httpx.JSONError(w, http.StatusNotFound, code, nil)
		return
	}
	serverError(w, r, err, "load "+strings.TrimSuffix(code, "_not_found"))
}

// statusError maps state machine errors onto 400 and 409.
func statusError(w http.ResponseWriter, err error) bool {
	var te *models.TransitionError
	switch {
	case errors.As(err, &te):
		httpx.JSONError(w, http.StatusConflict, "invalid_status_transition", map[string]any{
			"from":    te.From,
			"to":      te.To,
			"allowed": te.Allowed,
		})
		return true
	case errors.Is(err, models.ErrInvalidStatus):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_status", nil)
		return true
	}
	return false
}

// patchString applies a string field from p. A null clears it.
func patchString(p httpx.Patch, key string, dst *string, v validation.Violations) {
	if p.IsNull(key) {
		*dst = ""
		return
	}
	if _, err := p.Decode(key, dst); err != nil {
		v.Add(key, "invalid")
	}
	*dst = strings.TrimSpace(*dst)
}

// patchRequired is patchString for fields that may not be cleared.
func patchRequired(p httpx.Patch, key string, dst *string, v validation.Violations) {
	if !p.Has(key) {
		return
	}
	patchString(p, key, dst, v)
	validation.Required(key, *dst, v)
}

func patchValue[T any](p httpx.Patch, key string, dst *T, v validation.Violations) {
	if p.IsNull(key) {
		v.Add(key, "required")
		return
	}
	if _, err := p.Decode(key, dst); err != nil {
		v.Add(key, "invalid")
	}
}

// patchPointer applies a nullable field: null sets nil, a value replaces.
func patchPointer[T any](p httpx.Patch, key string, dst **T, v validation.Violations) {
	if !p.Has(key) {
		return
	}
	if p.IsNull(key) {
		*dst = nil
		return
	}
	var val T
	if _, err := p.Decode(key, &val); err != nil {
		v.Add(key, "invalid")
		return
	}
	*dst = &val
}

func paginate(q *gorm.DB, pg httpx.Page) *gorm.DB {
	return q.Offset(pg.Skip).Limit(pg.Limit)
}

// searchAny matches term as a case-insensitive substring of any of cols.
func searchAny(q *gorm.DB, term string, cols ...string) *gorm.DB {
	if strings.TrimSpace(term) == "" || len(cols) == 0 {
		return q
	}
	pattern := services.LikePattern(term)
	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		conds[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// taken reports whether a row other than except already holds value in
// column.
func taken(tx *gorm.DB, model any, column, value string, except uuid.UUID) (bool, error) {
	var n int64
	q := tx.Model(model).Where(column+" = ?", value)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, errors.Wrapf(err, "check %s", column)
	}
	return n > 0, nil
}
