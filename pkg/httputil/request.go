package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParseJSONOrError decodes the request body into dest, answering 400 on
// malformed JSON. Handlers validate field values themselves afterwards.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		WriteBadRequest(w, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

// ParsePathInt64OrError returns the named mux path variable as an int64,
// answering 400 when it is missing or not a number. Resource and workspace
// ids on every route come through here.
func ParsePathInt64OrError(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := mux.Vars(r)[key]
	if raw == "" {
		WriteBadRequest(w, fmt.Sprintf("missing path parameter: %s", key))
		return 0, false
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("invalid integer for %s: %s", key, raw))
		return 0, false
	}
	return val, true
}

// ParsePathStringOrError returns the named mux path variable, answering 400
// when it is empty. Used for invitation tokens and catalog kinds.
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	raw := mux.Vars(r)[key]
	if raw == "" {
		WriteBadRequest(w, fmt.Sprintf("missing path parameter: %s", key))
		return "", false
	}
	return raw, true
}

// ParseQueryInt returns the integer query parameter, or defaultVal when
// absent.
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, raw)
	}
	return val, nil
}

// RequireNonEmpty answers 400 when the field is empty and reports whether
// the request may proceed.
func RequireNonEmpty(w http.ResponseWriter, value, fieldName string) bool {
	if value == "" {
		WriteValidationError(w, fmt.Sprintf("%s is required", fieldName))
		return false
	}
	return true
}

// RequirePositive answers 400 when the id is zero or negative. Move requests
// use this for their destination ids.
func RequirePositive(w http.ResponseWriter, value int64, fieldName string) bool {
	if value <= 0 {
		WriteValidationError(w, fmt.Sprintf("%s must be positive", fieldName))
		return false
	}
	return true
}
