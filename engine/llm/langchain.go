package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangchainBackend routes completions through langchaingo's Ollama model.
type LangchainBackend struct {
	model llms.Model
}

func NewLangchainBackend(baseURL, model string, httpClient *http.Client) (*LangchainBackend, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, ollama.WithHTTPClient(httpClient))
	}
	m, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to initialize langchain ollama client: %w", err)
	}
	return &LangchainBackend{model: m}, nil
}

func (b *LangchainBackend) Complete(ctx context.Context, req Request) (string, error) {
	options := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(req.MaxTokens))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, b.model, req.Prompt, options...)
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	return out, nil
}
