// Package seed loads the fixed beauty-marketing corpus into the vector store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/engine/knowledge"
	"github.com/pharens/pharens-ai/engine/knowledge/vectordb"
	"github.com/pharens/pharens-ai/pkg/logger"
)

// Embedder produces the vector stored with each item.
type Embedder interface {
	Embed(ctx context.Context, text string) core.Result[[]float32]
}

// BatchEmbedder embeds many texts in one pass, returning one vector per text.
type BatchEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Upserter persists embedded records.
type Upserter interface {
	Upsert(ctx context.Context, records []knowledge.Record) error
}

var errEmbeddingUnavailable = errors.New("embedding unavailable")

// Summary counts the outcome of a population run.
type Summary struct {
	SuccessCount int `json:"successCount"`
	FailCount    int `json:"failCount"`
}

func (s Summary) Message() string {
	return fmt.Sprintf("Knowledge base populated: %d successful, %d failed", s.SuccessCount, s.FailCount)
}

type Options struct {
	Concurrency int
	Retries     uint64
	RetryBase   time.Duration
	// Batch, when set, embeds the whole corpus up front. Items it cannot
	// cover are embedded one at a time.
	Batch BatchEmbedder
}

type Populator struct {
	embedder Embedder
	store    Upserter
	items    func() []knowledge.Item
	opts     Options
	now      func() time.Time
	newID    func() string
}

func NewPopulator(emb Embedder, store Upserter, opts Options) (*Populator, error) {
	if emb == nil {
		return nil, errors.New("seed: embedder is required")
	}
	if store == nil {
		return nil, errors.New("seed: vector store is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 250 * time.Millisecond
	}
	return &Populator{
		embedder: emb,
		store:    store,
		items:    knowledge.Corpus,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}, nil
}

// WithItems swaps the corpus. Used by tests and by callers seeding custom content.
func (p *Populator) WithItems(items []knowledge.Item) *Populator {
	p.items = func() []knowledge.Item { return items }
	return p
}

// Populate embeds and stores every corpus item. Individual failures are counted,
// never returned; an error means the run itself was cancelled.
func (p *Populator) Populate(ctx context.Context) (Summary, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	if ensurer, ok := p.store.(vectordb.SchemaEnsurer); ok {
		if err := ensurer.EnsureSchema(ctx); err != nil {
			log.Error("Vector extension error", "error", core.RedactError(err))
		}
	}
	items := p.items()
	vectors := p.embedBatch(ctx, items)
	var success, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := p.storeItem(gctx, item, vectors[i]); err != nil {
				failed.Add(1)
				log.Error("Failed to store knowledge item", "title", item.Title, "error", core.RedactError(err))
				return nil
			}
			success.Add(1)
			log.Info("Stored knowledge item", "title", item.Title)
			return nil
		})
	}
	_ = g.Wait()
	summary := Summary{SuccessCount: int(success.Load()), FailCount: int(failed.Load())}
	knowledge.RecordPopulateDuration(ctx, time.Since(start))
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("seed: population interrupted: %w", err)
	}
	log.Info(summary.Message())
	return summary, nil
}

// embedBatch returns one slot per item. Empty slots are left for storeItem
// to embed individually.
func (p *Populator) embedBatch(ctx context.Context, items []knowledge.Item) [][]float32 {
	vectors := make([][]float32, len(items))
	if p.opts.Batch == nil || len(items) == 0 {
		return vectors
	}
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText()
	}
	out, err := p.opts.Batch.EmbedDocuments(ctx, texts)
	if err == nil && len(out) != len(items) {
		err = fmt.Errorf("got %d embeddings for %d items", len(out), len(items))
	}
	if err != nil {
		logger.FromContext(ctx).Warn("Batch embedding failed, embedding items one by one",
			"error", core.RedactError(err))
		return vectors
	}
	return out
}

// storeItem embeds item unless vec is already known, then upserts it. Every
// attempt writes under the same record id.
func (p *Populator) storeItem(ctx context.Context, item knowledge.Item, vec []float32) error {
	backoff := retry.WithMaxRetries(p.opts.Retries, retry.NewExponential(p.opts.RetryBase))
	id := p.newID()
	createdAt := p.now()
	outcome := "stored"
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if len(vec) == 0 {
			embedded, ok := p.embedder.Embed(ctx, item.EmbeddingText()).Get()
			if !ok {
				outcome = "embed_failed"
				return retry.RetryableError(errEmbeddingUnavailable)
			}
			vec = embedded
		}
		record := knowledge.Record{
			ID:        id,
			Title:     item.Title,
			Content:   item.Content,
			Category:  item.Category,
			Embedding: vec,
			CreatedAt: createdAt,
		}
		if err := p.store.Upsert(ctx, []knowledge.Record{record}); err != nil {
			outcome = "store_failed"
			return retry.RetryableError(err)
		}
		outcome = "stored"
		return nil
	})
	knowledge.RecordPopulateItem(ctx, outcome)
	return err
}
