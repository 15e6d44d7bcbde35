package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/order-intake/internal/api/middleware"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{"allowed", &stubLimiter{allowed: true}, http.StatusTeapot},
		{"denied", &stubLimiter{allowed: false}, http.StatusTooManyRequests},
		{"limiter down lets through", &stubLimiter{err: errors.New("redis down")}, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewRateLimitMiddleware(tt.limiter).Limit(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/webhook/zalo", nil)
			req.RemoteAddr = "10.0.0.1"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, []string{"ip:10.0.0.1"}, tt.limiter.keys)
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.Logger(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
