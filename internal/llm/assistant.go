package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Assistant implements domain.Assistant on top of the router's available provider
type Assistant struct {
	router       *Router
	brand        string
	supportPhone string
	timeout      time.Duration
}

// NewAssistant creates an assistant; timeout bounds each answer
func NewAssistant(router *Router, brand, supportPhone string, timeout time.Duration) *Assistant {
	return &Assistant{router: router, brand: brand, supportPhone: supportPhone, timeout: timeout}
}

// Answer returns a short plain-text reply to a free-form question
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	provider, err := a.router.Available()
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := provider.Complete(ctx, Request{
		Question:     question,
		Brand:        a.brand,
		SupportPhone: a.supportPhone,
	}, "")
	if err != nil {
		return "", fmt.Errorf("failed to complete with %s: %w", provider.Name(), err)
	}

	log.Debug().
		Str("provider", provider.Name()).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Int64("latency_ms", resp.LatencyMs).
		Msg("Assistant answered")

	return CleanAnswer(resp.Text), nil
}
