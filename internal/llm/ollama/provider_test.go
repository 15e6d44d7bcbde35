package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/llm"
)

func TestProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "giờ làm việc")

		json.NewEncoder(w).Encode(ollamaResponse{Response: "Từ 8h đến 17h.", Done: true, EvalCount: 12})
	}))
	defer srv.Close()

	p := NewProvider(config.OllamaConfig{Host: srv.URL + "/", DefaultModel: "mistral"})
	require.True(t, p.IsConfigured())

	resp, err := p.Complete(context.Background(), llm.Request{Question: "giờ làm việc?"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Từ 8h đến 17h.", resp.Text)
	assert.Equal(t, 12, resp.TokensUsed)
}

func TestProvider_Complete_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewProvider(config.OllamaConfig{Host: srv.URL}).Complete(context.Background(), llm.Request{}, "")
	assert.ErrorContains(t, err, "status 500")
}
