package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Adapter wraps a langchaingo embedder with dimension checks, an optional
// query cache and instrumentation.
type Adapter struct {
	id        string
	provider  Provider
	model     string
	dimension int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

// ErrDimensionMismatch is returned when the model answers with a vector of
// an unexpected length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// New builds the configured provider and wraps it.
func New(cfg *Config, httpClient *http.Client) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	client, err := buildClient(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(
		client,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct embedder: %w", cfg.ID, err)
	}
	return Wrap(cfg, impl)
}

// Wrap adapts an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.ID)
	}
	a := &Adapter{
		id:        cfg.ID,
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		impl:      impl,
	}
	if cfg.CacheSize > 0 {
		if err := a.EnableCache(cfg.CacheSize); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func buildClient(cfg *Config, httpClient *http.Client) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case ProviderOllama:
		c, err := NewOllamaClient(cfg.BaseURL, cfg.Model, httpClient)
		if err != nil {
			return nil, fmt.Errorf("embedder %q: %w", cfg.ID, err)
		}
		return c, nil
	case ProviderLangchain:
		opts := []ollama.Option{ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.BaseURL)}
		if httpClient != nil {
			opts = append(opts, ollama.WithHTTPClient(httpClient))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("embedder %q: failed to initialize langchain ollama client: %w", cfg.ID, err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("embedder %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

// EnableCache keeps up to size query vectors keyed by the sha256 of the text.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("embedder %q: cache size must be greater than zero", a.id)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder %q: init cache: %w", a.id, err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedQuery embeds a single text, consulting the cache first.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := a.lookup(key); ok {
		recordCacheHit(ctx, string(a.provider))
		return vec, nil
	}
	start := time.Now()
	vec, err := a.impl.EmbedQuery(ctx, text)
	if err == nil {
		err = a.checkDimension(vec)
	}
	if err != nil {
		recordError(ctx, string(a.provider), categorizeError(err))
		return nil, a.withContext(err)
	}
	recordGeneration(ctx, string(a.provider), a.model, 1, time.Since(start))
	if a.cacheEnabled() {
		recordCacheMiss(ctx, string(a.provider))
		a.store(key, vec)
	}
	return cloneVector(vec), nil
}

// EmbedDocuments embeds texts in batches without caching.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("received %d embeddings for %d texts", len(vectors), len(texts))
	}
	for i := 0; err == nil && i < len(vectors); i++ {
		err = a.checkDimension(vectors[i])
	}
	if err != nil {
		recordError(ctx, string(a.provider), categorizeError(err))
		return nil, a.withContext(err)
	}
	recordGeneration(ctx, string(a.provider), a.model, len(texts), time.Since(start))
	return vectors, nil
}

func (a *Adapter) checkDimension(vec []float32) error {
	if len(vec) == 0 {
		return ErrEmptyEmbedding
	}
	if a.dimension > 0 && len(vec) != a.dimension {
		return fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(vec), a.dimension)
	}
	return nil
}

func (a *Adapter) cacheEnabled() bool {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	return a.cache != nil
}

func (a *Adapter) lookup(key string) ([]float32, bool) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache == nil {
		return nil, false
	}
	vec, ok := a.cache.Get(key)
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

func (a *Adapter) store(key string, vec []float32) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	if a.cache != nil && len(vec) > 0 {
		a.cache.Add(key, cloneVector(vec))
	}
}

func (a *Adapter) withContext(err error) error {
	return fmt.Errorf("embedder %q: %w", a.id, err)
}

// categorizeError approximates an error bucket from the message text.
func categorizeError(err error) string {
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(lower, "timeout"):
		return "timeout"
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrEmptyEmbedding):
		return "invalid_response"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "unreachable"
	case strings.Contains(lower, "not found"), strings.Contains(lower, "404"):
		return "model_not_found"
	default:
		return "server_error"
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
