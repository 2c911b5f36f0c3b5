// Package retriever turns a query vector into ranked knowledge snippets.
package retriever

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/engine/knowledge"
	"github.com/pharens/pharens-ai/engine/knowledge/vectordb"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// Searcher is the read side of a vector store.
type Searcher interface {
	Search(ctx context.Context, query []float32, opts vectordb.SearchOptions) ([]vectordb.Match, error)
}

// Gateway runs similarity search against a store and guarantees the result
// contract regardless of what the backend returns: every score is at least
// the threshold, results are ordered by score descending and there are never
// more than limit of them. Backend failures yield an empty slice.
type Gateway struct {
	store    Searcher
	provider string
	timeout  time.Duration
	tracer   trace.Tracer
}

type Option func(*Gateway)

// WithTimeout bounds each backend search.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithProvider labels metrics and spans with the backend name.
func WithProvider(name string) Option {
	return func(g *Gateway) { g.provider = name }
}

func NewGateway(store Searcher, opts ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("retriever: vector store is required")
	}
	g := &Gateway{
		store:    store,
		provider: "unknown",
		tracer:   otel.Tracer("pharens.knowledge.retriever"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Search returns at most limit snippets scoring at least threshold.
func (g *Gateway) Search(
	ctx context.Context,
	vector []float32,
	threshold float64,
	limit int,
) []knowledge.RetrievalResult {
	if limit <= 0 || len(vector) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, "skipped")
		return []knowledge.RetrievalResult{}
	}
	log := logger.FromContext(ctx).With("provider", g.provider)
	ctx, span := g.tracer.Start(ctx, "pharens.knowledge.retriever.search", trace.WithAttributes(
		attribute.String("provider", g.provider),
		attribute.Float64("threshold", threshold),
		attribute.Int("limit", limit),
	))
	defer span.End()
	searchCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	matches, err := g.store.Search(searchCtx, vector, vectordb.SearchOptions{TopK: limit, MinScore: threshold})
	knowledge.RecordQueryLatency(ctx, g.provider, time.Since(start))
	if err != nil {
		log.Warn("Knowledge search failed", "error", core.RedactError(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		knowledge.RecordRetrievalEmpty(ctx, "error")
		return []knowledge.RetrievalResult{}
	}
	results := enforce(matches, threshold, limit)
	span.SetAttributes(attribute.Int("results", len(results)))
	if len(results) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, "no_match")
	}
	log.Debug("Knowledge search finished", "raw", len(matches), "results", len(results))
	return results
}

func enforce(matches []vectordb.Match, threshold float64, limit int) []knowledge.RetrievalResult {
	kept := make([]vectordb.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score >= threshold {
			kept = append(kept, m)
		}
	}
	vectordb.SortMatches(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}
	results := make([]knowledge.RetrievalResult, len(kept))
	for i, m := range kept {
		results[i] = knowledge.RetrievalResult{Title: m.Title, Content: m.Content, Score: m.Score}
	}
	return results
}
