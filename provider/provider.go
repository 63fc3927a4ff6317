package provider

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/chatgate/config"
	"github.com/mohammad-safakhou/chatgate/models"
	openai_provider "github.com/mohammad-safakhou/chatgate/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the generation collaborator: it drives one streaming chat
// completion. onDelta is invoked for every text fragment as it arrives;
// returning an error from onDelta aborts the stream. The accumulated full
// response is returned on normal completion.
type Provider interface {
	ChatStream(ctx context.Context, messages []models.Message, onDelta func(delta string) error) (string, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		return openai_provider.NewOpenAIClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
