package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/order-intake/internal/llm"
)

type stubProvider struct {
	name       string
	configured bool
	text       string
	err        error
	got        llm.Request
	deadline   bool
}

func (p *stubProvider) Name() string         { return p.name }
func (p *stubProvider) DefaultModel() string { return "stub-1" }
func (p *stubProvider) IsConfigured() bool   { return p.configured }

func (p *stubProvider) Complete(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	p.got = req
	_, p.deadline = ctx.Deadline()
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Text: p.text, Model: "stub-1"}, nil
}

func TestAssistant_Answer(t *testing.T) {
	provider := &stubProvider{name: "stub", configured: true, text: "**Chào bạn!**"}
	router := llm.NewRouter("stub")
	router.RegisterProvider(provider)

	answer, err := llm.NewAssistant(router, "Kính Việt", "0900000000", time.Second).
		Answer(context.Background(), "giờ làm việc?")
	require.NoError(t, err)
	assert.Equal(t, "Chào bạn!", answer)
	assert.Equal(t, "giờ làm việc?", provider.got.Question)
	assert.Equal(t, "Kính Việt", provider.got.Brand)
	assert.True(t, provider.deadline)
}

func TestAssistant_Errors(t *testing.T) {
	router := llm.NewRouter("stub")
	_, err := llm.NewAssistant(router, "", "", 0).Answer(context.Background(), "?")
	assert.ErrorContains(t, err, "no configured provider")

	router.RegisterProvider(&stubProvider{name: "stub"})
	_, err = llm.NewAssistant(router, "", "", 0).Answer(context.Background(), "?")
	assert.ErrorContains(t, err, "no configured provider")

	boom := errors.New("boom")
	router.RegisterProvider(&stubProvider{name: "stub", configured: true, err: boom})
	_, err = llm.NewAssistant(router, "", "", 0).Answer(context.Background(), "?")
	assert.ErrorIs(t, err, boom)
}

func TestRouter_ListProviders(t *testing.T) {
	router := llm.NewRouter("a")
	router.RegisterProvider(&stubProvider{name: "c", configured: true})
	router.RegisterProvider(&stubProvider{name: "a", configured: true})
	router.RegisterProvider(&stubProvider{name: "b"})

	assert.Equal(t, []string{"a", "c"}, router.ListProviders())
	assert.Equal(t, "a", router.DefaultProvider())
}

func TestRouter_FallsBackWhenDefaultUnconfigured(t *testing.T) {
	router := llm.NewRouter("gemini")
	router.RegisterProvider(&stubProvider{name: "gemini"})
	router.RegisterProvider(&stubProvider{name: "ollama", configured: true})

	p, err := router.Available()
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = router.GetProvider("gemini")
	assert.ErrorContains(t, err, "not configured")
}

func TestRouter_NoneAvailable(t *testing.T) {
	router := llm.NewRouter("gemini")
	router.RegisterProvider(&stubProvider{name: "gemini"})

	_, err := router.Available()
	assert.ErrorContains(t, err, "no configured provider")
}
