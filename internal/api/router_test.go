package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/order-intake/internal/api"
	"github.com/Rrens/order-intake/internal/api/handler"
	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
)

type echoEvents struct{}

func (echoEvents) HandleEvent(_ context.Context, ev domain.InboundEvent) (domain.Reply, error) {
	return domain.Reply{Text: ev.Text()}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{
		MiddlewareTimeout: 5 * time.Second,
		AllowedOrigins:    []string{"*"},
	}}
}

func TestRouter(t *testing.T) {
	r := api.NewRouter(testConfig(), api.Routes{
		Webhook: handler.NewWebhookHandler(echoEvents{}, time.Second),
		Checks:  map[string]handler.Pinger{},
	})

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ready", "", http.StatusOK},
		{http.MethodPost, "/webhook/zalo", `{"event_name":"user_send_text","sender":{"id":"u1"},"message":{"text":"hi"},"timestamp":"1"}`, http.StatusOK},
		{http.MethodGet, "/webhook/zalo", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_WebhookRateLimited(t *testing.T) {
	r := api.NewRouter(testConfig(), api.Routes{
		Webhook: handler.NewWebhookHandler(echoEvents{}, time.Second),
		Limiter: denyAll{},
	})

	rec := httptest.NewRecorder()
	body := `{"event_name":"user_send_text","sender":{"id":"u1"},"message":{"text":"hi"},"timestamp":"1"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/zalo", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
