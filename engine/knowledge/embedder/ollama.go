package embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// ErrEmptyEmbedding is returned when the backend answers without a vector.
var ErrEmptyEmbedding = errors.New("embedding response is empty")

// OllamaClient implements langchaingo's EmbedderClient on top of Ollama's
// single-prompt embeddings endpoint.
type OllamaClient struct {
	api   *api.Client
	model string
}

func NewOllamaClient(baseURL, model string, httpClient *http.Client) (*OllamaClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{api: api.NewClient(base, httpClient), model: model}, nil
}

// CreateEmbedding embeds each text with its own request, in order.
func (c *OllamaClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{Model: c.model, Prompt: text})
		if err != nil {
			return nil, fmt.Errorf("ollama embeddings: %w", err)
		}
		if len(resp.Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vec := make([]float32, len(resp.Embedding))
		for i, v := range resp.Embedding {
			vec[i] = float32(v)
		}
		out = append(out, vec)
	}
	return out, nil
}
