package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is the skip/limit window of a list request.
type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads skip and limit from the query string. Missing values
// fall back to 0 and DefaultLimit; limit is capped at MaxLimit.
func ParsePage(r *http.Request) (Page, error) {
	pg := Page{Skip: 0, Limit: DefaultLimit}
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return pg, errors.Errorf("skip must be a non-negative integer")
		}
		pg.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return pg, errors.Errorf("limit must be a positive integer")
		}
		pg.Limit = min(n, MaxLimit)
	}
	return pg, nil
}

// QueryBool parses a boolean query parameter, returning def when absent.
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

// QueryUUID parses an optional UUID query parameter.
func QueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, errors.Errorf("%s must be a UUID", key)
	}
	return &id, nil
}

// PathUUID parses the named path wildcard as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "path %s", name)
	}
	return id, nil
}
