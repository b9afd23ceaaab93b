package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avercroft/kennelgate/internal/middleware"
	"github.com/avercroft/kennelgate/internal/throttle"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	admit     bool
	lastAddr  string
	lastClass throttle.Class
}

func (s *stubLimiter) Admit(addr string, class throttle.Class) bool {
	s.lastAddr = addr
	s.lastClass = class
	return s.admit
}

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want throttle.Class
	}{
		{"/auth/login", throttle.ClassLogin},
		{"/auth/admin/create", throttle.ClassAdmin},
		{"/auth/admin/create-account", throttle.ClassAdmin},
		{"/admin/dashboard", throttle.ClassAdmin},
		{"/auth/forgot-password", throttle.ClassPublic},
		{"/health", throttle.ClassPublic},
		{"/nonexistent", throttle.ClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, middleware.ClassifyPath(tt.path))
		})
	}
}

func TestRateLimitPassesAdmittedRequests(t *testing.T) {
	limiter := &stubLimiter{admit: true}
	handler := middleware.RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "203.0.113.7", limiter.lastAddr)
	assert.Equal(t, throttle.ClassLogin, limiter.lastClass)
}

func TestRateLimitIgnoresSpoofedForwardingHeaders(t *testing.T) {
	limiter := &stubLimiter{admit: true}
	handler := middleware.RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Without a configured trusted proxy the forwarding header must not
	// change which address gets throttled.
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "198.51.100.99")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "203.0.113.7", limiter.lastAddr)
}

func TestRateLimitRejectsWith429(t *testing.T) {
	limiter := &stubLimiter{admit: false}
	handler := middleware.RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	r := httptest.NewRequest("GET", "/health", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, throttle.ClassPublic, limiter.lastClass)
}
