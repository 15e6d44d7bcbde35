package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/api/response"
)

// Pinger is a backend that can report its connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including backend connectivity
func ReadyCheck(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				log.Warn().Err(err).Str("backend", name).Msg("Readiness check failed")
				failed[name] = "not ready"
			}
		}
		if len(failed) > 0 {
			response.ServiceUnavailable(w, failed)
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
