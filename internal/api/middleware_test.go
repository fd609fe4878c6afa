package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/stretchr/testify/assert"
)

func Test_authMiddleware(t *testing.T) {
	app := newTestApp(t, &database.MockQuizRepository{})

	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		userId, ok := UserId(r.Context())
		assert.True(t, ok, "expected user id in request context")
		assert.Equal(t, 42, userId)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes through", func(t *testing.T) {
		token, err := app.createJwtForSession(42, time.Hour)
		assert.NoError(t, err)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Containsf(t, rr.Header().Get("Cache-Control"), "no-store",
			"expected authenticated responses to disable caching, got %q", rr.Header().Get("Cache-Control"))
	})

	t.Run("missing cookie fails unauthorized", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token fails unauthorized", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(createJwtCookie("garbage", time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token fails unauthorized", func(t *testing.T) {
		token, err := app.createJwtForSession(42, -time.Hour)
		assert.NoError(t, err)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func Test_errorHandler(t *testing.T) {
	app := newTestApp(t, &database.MockQuizRepository{})

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected panic to produce 500")
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}
