package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/api/response"
	"github.com/Rrens/order-intake/internal/domain"
)

// RateLimitMiddleware throttles inbound requests per client address
type RateLimitMiddleware struct {
	limiter domain.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter domain.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit rejects requests over the limit with 429. Limiter failures let the
// request through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := m.limiter.Allow(r.Context(), "ip:"+r.RemoteAddr)
		if err != nil {
			log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			response.TooManyRequests(w, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
