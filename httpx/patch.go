package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Patch is a decoded partial-update body. It keeps the raw value of every
// key so callers can tell an absent key from an explicit null.
type Patch map[string]json.RawMessage

// DecodePatch reads a JSON object body into a Patch.
func DecodePatch(r *http.Request) (Patch, error) {
	var p Patch
	if err := DecodeJSON(r, &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return p, nil
}

// Has reports whether key was supplied, even as null.
func (p Patch) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// IsNull reports whether key was supplied as an explicit JSON null.
func (p Patch) IsNull(key string) bool {
	raw, ok := p[key]
	return ok && string(raw) == "null"
}

// Decode unmarshals the value of key into dst. It returns false without
// touching dst when key is absent.
func (p Patch) Decode(key string, dst any) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, errors.Wrapf(err, "field %q", key)
	}
	return true, nil
}
