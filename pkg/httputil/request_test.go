package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONOrError(t *testing.T) {
	type moveRequest struct {
		BoardID int64 `json:"board_id"`
	}

	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks/5/move", strings.NewReader(`{"board_id": 9}`))
		rec := httptest.NewRecorder()

		var body moveRequest
		require.True(t, ParseJSONOrError(rec, req, &body))
		assert.Equal(t, int64(9), body.BoardID)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks/5/move", strings.NewReader(`{"board_id":`))
		rec := httptest.NewRecorder()

		var body moveRequest
		assert.False(t, ParseJSONOrError(rec, req, &body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid JSON")
	})
}

func TestParsePathInt64OrError(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want int64
		ok   bool
	}{
		{"valid id", map[string]string{"id": "42"}, 42, true},
		{"missing", map[string]string{}, 0, false},
		{"not a number", map[string]string{"id": "board"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/boards/42", nil), tt.vars)
			rec := httptest.NewRecorder()

			got, ok := ParsePathInt64OrError(rec, req, "id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestParsePathStringOrError(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/boards/1/statuses", nil),
		map[string]string{"kind": "statuses"})
	rec := httptest.NewRecorder()
	kind, ok := ParsePathStringOrError(rec, req, "kind")
	require.True(t, ok)
	assert.Equal(t, "statuses", kind)

	rec = httptest.NewRecorder()
	_, ok = ParsePathStringOrError(rec, req, "token")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tasks/5/history?limit=10", nil)
	limit, err := ParseQueryInt(req, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	req = httptest.NewRequest(http.MethodGet, "/tasks/5/history", nil)
	limit, err = ParseQueryInt(req, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	req = httptest.NewRequest(http.MethodGet, "/tasks/5/history?limit=all", nil)
	_, err = ParseQueryInt(req, "limit", 50)
	assert.Error(t, err)
}

func TestRequireNonEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.True(t, RequireNonEmpty(rec, "launch", "name"))

	rec = httptest.NewRecorder()
	assert.False(t, RequireNonEmpty(rec, "", "name"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestRequirePositive(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.True(t, RequirePositive(rec, 7, "board_id"))

	for _, bad := range []int64{0, -3} {
		rec = httptest.NewRecorder()
		assert.False(t, RequirePositive(rec, bad, "board_id"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
