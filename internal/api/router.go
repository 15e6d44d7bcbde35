package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/order-intake/internal/api/handler"
	customMiddleware "github.com/Rrens/order-intake/internal/api/middleware"
	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
)

// Routes collects what the router serves
type Routes struct {
	Webhook *handler.WebhookHandler
	// Checks are pinged by /ready
	Checks map[string]handler.Pinger
	// Limiter throttles webhook deliveries per address, optional
	Limiter domain.RateLimiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, routes Routes) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/webhook", func(r chi.Router) {
		if routes.Limiter != nil {
			r.Use(customMiddleware.NewRateLimitMiddleware(routes.Limiter).Limit)
		}
		r.Post("/zalo", routes.Webhook.Zalo)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(routes.Checks))
	})

	return r
}
