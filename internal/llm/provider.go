package llm

import "context"

// Request contains what the assistant needs to answer one customer message
type Request struct {
	Question     string
	Brand        string
	SupportPhone string
}

// Response contains LLM generation result
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete answers a customer question
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}
