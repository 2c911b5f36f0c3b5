package embedder

import (
	"context"
	"time"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// QueryEmbedder is the subset of Adapter the Client needs.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client turns a text into an embedding vector. Every failure, including a
// timeout, comes back as a failed Result.
type Client struct {
	embedder QueryEmbedder
	timeout  time.Duration
}

func NewClient(embedder QueryEmbedder, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{embedder: embedder, timeout: timeout}
}

// Embed makes at most one call to the embedding backend. The text is sent
// unmodified.
func (c *Client) Embed(ctx context.Context, text string) core.Result[[]float32] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Warn("embedding failed", "error", core.RedactError(err))
		return core.Failed[[]float32](err)
	}
	if len(vec) == 0 {
		return core.Failed[[]float32](ErrEmptyEmbedding)
	}
	return core.Ok(vec)
}
