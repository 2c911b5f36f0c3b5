package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaBackend calls /api/generate with streaming disabled.
type OllamaBackend struct {
	client *api.Client
}

func NewOllamaBackend(baseURL string, httpClient *http.Client) (*OllamaBackend, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("llm: invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaBackend{client: api.NewClient(base, httpClient)}, nil
}

func (b *OllamaBackend) Complete(ctx context.Context, req Request) (string, error) {
	stream := false
	genReq := &api.GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}
	var out strings.Builder
	err := b.client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}
