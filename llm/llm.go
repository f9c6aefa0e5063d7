// Package llm abstracts text-generation model calls behind a uniform
// Client interface so callers can hold an ordered list of models and fall
// through them on failure.
package llm

import (
	"context"
	"fmt"

	"github.com/hongwoogi/grantrag/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Client generates text from a conversation. One Client speaks to exactly
// one named model.
type Client interface {
	Model() string
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Options carries provider-independent client settings.
type Options struct {
	Provider string
	Model    string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// NewClient builds a generation client for a single model using the
// configured provider.
func NewClient(cfg config.Config, model string) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         model,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}

// NewClients builds one client per configured model, preserving the
// priority order.
func NewClients(cfg config.Config) ([]Client, error) {
	if len(cfg.LLM.Models) == 0 {
		return nil, fmt.Errorf("no llm models configured")
	}

	clients := make([]Client, 0, len(cfg.LLM.Models))
	for _, model := range cfg.LLM.Models {
		client, err := NewClient(cfg, model)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, nil
}
