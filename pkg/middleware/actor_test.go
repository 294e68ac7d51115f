package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard-dev/openboard/pkg/observability"
)

func TestActorMiddleware(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := GetActorID(r)
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		assert.Equal(t, int64(42), actorID)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workspaces/1", nil)
		req.Header.Set(ActorIDHeader, "42")
		rec := httptest.NewRecorder()

		NewActorMiddleware().Handler(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/workspaces/1", nil)
		rec := httptest.NewRecorder()

		NewActorMiddleware().Handler(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing")
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, value := range []string{"abc", "-1", "0", "1.5"} {
			req := httptest.NewRequest(http.MethodGet, "/workspaces/1", nil)
			req.Header.Set(ActorIDHeader, value)
			rec := httptest.NewRecorder()

			NewActorMiddleware().Handler(echo).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "value %q", value)
		}
	})

	t.Run("optional lets anonymous through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()

		NewOptionalActorMiddleware().Handler(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("generates an id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		RequestID(next).ServeHTTP(rec, req)
		seen = rec.Header().Get(RequestIDHeader)
		require.NotEmpty(t, seen)
	})

	t.Run("honors the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		RequestID(next).ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestRequestLogging(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/boards/1/tasks", nil)
	rec := httptest.NewRecorder()

	RequestLogging(logger)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
