package llm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/order-intake/internal/llm"
)

func TestBuildPrompt(t *testing.T) {
	prompt := llm.BuildPrompt(llm.Request{
		Question:     "Kính cường lực dày nhất là bao nhiêu?",
		Brand:        "Kính Việt",
		SupportPhone: "0900000000",
	})

	for _, s := range []string{"Kính Việt", "0900000000", "Kính cường lực dày nhất", "đặt hàng"} {
		assert.Contains(t, prompt, s)
	}
}

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Xin chào bạn.  ", "Xin chào bạn."},
		{"code fence", "```text\nGõ **đặt hàng** để bắt đầu.\n```", "Gõ đặt hàng để bắt đầu."},
		{"inline code", "Gõ `hướng dẫn`", "Gõ hướng dẫn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.CleanAnswer(tt.in))
		})
	}
}

func TestCleanAnswer_Truncates(t *testing.T) {
	got := llm.CleanAnswer(strings.Repeat("kính ", 200))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), 401)
}
