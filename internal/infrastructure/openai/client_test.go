package openai

import (
	"errors"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runova/backend/internal/domain"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrAssistantUnauthorized)

	c, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, defaultChatModel, c.config.ChatModel)
	assert.Equal(t, defaultVoice, c.config.Voice)
}

func TestSystemPrompt(t *testing.T) {
	t.Run("includes exact catalog names", func(t *testing.T) {
		prompt := systemPrompt([]string{"CeraVe Moisturizing Cream", "Vanicream Daily Facial Moisturizer"})
		assert.Contains(t, prompt, "CeraVe Moisturizing Cream; Vanicream Daily Facial Moisturizer")
		assert.Contains(t, prompt, "exact product names")
	})

	t.Run("no catalog names means no product clause", func(t *testing.T) {
		prompt := systemPrompt(nil)
		assert.NotContains(t, prompt, "exact product names")
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", 401, domain.ErrAssistantUnauthorized},
		{"forbidden", 403, domain.ErrAssistantUnauthorized},
		{"rate limited", 429, domain.ErrRateLimited},
		{"server error", 500, domain.ErrAssistantUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError(&openai.Error{StatusCode: tt.status})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("plain errors map to unavailable", func(t *testing.T) {
		err := mapError(errors.New("dial tcp: connection refused"))
		assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
	})
}
