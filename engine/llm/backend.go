// Package llm generates assistant replies through a local Ollama model.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderLangchain Provider = "langchain"
)

const (
	DefaultModel       = "llama3.2:3b"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
	DefaultTimeout     = 60 * time.Second
)

// Request is a single non-streaming completion call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Backend performs one completion round trip.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// BuildPrompt frames the system prompt and the user message the way the chat
// model expects them.
func BuildPrompt(systemPrompt, userMessage string) string {
	return fmt.Sprintf("System: %s\n\nUser: %s\n\nAssistant:", systemPrompt, userMessage)
}

// NewBackend builds the backend for provider.
func NewBackend(provider Provider, baseURL, model string, httpClient *http.Client) (Backend, error) {
	switch provider {
	case ProviderOllama, "":
		return NewOllamaBackend(baseURL, httpClient)
	case ProviderLangchain:
		return NewLangchainBackend(baseURL, model, httpClient)
	default:
		return nil, fmt.Errorf("llm: provider %q is not supported", provider)
	}
}
