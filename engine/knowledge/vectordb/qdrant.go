package vectordb

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

type qdrantStore struct {
	client     *resty.Client
	collection string
	dimension  int
}

type qdrantSearchResult struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

const defaultHTTPTimeout = 10 * time.Second

func newQdrantStore(ctx context.Context, cfg *Config) (Store, error) {
	store := &qdrantStore{
		client:     newRestClient(cfg, strings.TrimRight(cfg.DSN, "/")),
		collection: cfg.Table,
		dimension:  cfg.Dimension,
	}
	if cfg.APIKey != "" {
		store.client.SetHeader("api-key", cfg.APIKey)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newRestClient(cfg *Config, baseURL string) *resty.Client {
	var client *resty.Client
	if cfg.HTTPClient != nil {
		client = resty.NewWithClient(cfg.HTTPClient)
	} else {
		client = resty.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return client.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// EnsureSchema creates the collection with cosine distance when it is absent.
func (q *qdrantStore) EnsureSchema(ctx context.Context) error {
	resp, err := q.client.R().SetContext(ctx).Get(q.collectionPath(""))
	if err != nil {
		return fmt.Errorf("qdrant: inspect collection: %w", err)
	}
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	if resp.StatusCode() != http.StatusNotFound {
		return qdrantError("inspect collection", resp)
	}
	body := map[string]any{
		"vectors": map[string]any{"size": q.dimension, "distance": "Cosine"},
	}
	resp, err = q.client.R().SetContext(ctx).SetBody(body).Put(q.collectionPath(""))
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	if resp.IsError() {
		return qdrantError("create collection", resp)
	}
	return nil
}

func (q *qdrantStore) collectionPath(suffix string) string {
	return "/collections/" + q.collection + suffix
}

func (q *qdrantStore) Upsert(ctx context.Context, records []knowledge.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(records))
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != q.dimension {
			return fmt.Errorf("qdrant: record %q dimension mismatch (got %d want %d)",
				rec.ID, len(rec.Embedding), q.dimension)
		}
		points = append(points, map[string]any{
			"id":     rec.ID,
			"vector": rec.Embedding,
			"payload": map[string]any{
				"title":    rec.Title,
				"content":  rec.Content,
				"category": rec.Category,
			},
		})
	}
	resp, err := q.client.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetBody(map[string]any{"points": points}).
		Put(q.collectionPath("/points"))
	if err != nil {
		recordVectorError(ctx, "upsert", string(ProviderQdrant))
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	if resp.IsError() {
		recordVectorError(ctx, "upsert", string(ProviderQdrant))
		return qdrantError("upsert", resp)
	}
	return nil
}

func (q *qdrantStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != q.dimension {
		return nil, fmt.Errorf("qdrant: query dimension mismatch (got %d want %d)", len(query), q.dimension)
	}
	limit := opts.TopK
	if limit <= 0 {
		limit = defaultTopK
	}
	request := map[string]any{
		"vector":          query,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": opts.MinScore,
	}
	var response struct {
		Result []qdrantSearchResult `json:"result"`
	}
	start := time.Now()
	resp, err := q.client.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post(q.collectionPath("/points/search"))
	if err != nil {
		recordVectorError(ctx, "search", string(ProviderQdrant))
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}
	if resp.IsError() {
		recordVectorError(ctx, "search", string(ProviderQdrant))
		return nil, qdrantError("search", resp)
	}
	matches := mapQdrantResults(response.Result, opts.MinScore)
	recordVectorSearch(ctx, string(ProviderQdrant), limit, time.Since(start), matches)
	return matches, nil
}

func mapQdrantResults(results []qdrantSearchResult, minScore float64) []Match {
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		if res.Score < minScore {
			continue
		}
		matches = append(matches, Match{
			ID:       fmt.Sprint(res.ID),
			Title:    payloadString(res.Payload, "title"),
			Content:  payloadString(res.Payload, "content"),
			Category: payloadString(res.Payload, "category"),
			Score:    res.Score,
		})
	}
	SortMatches(matches)
	return matches
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func (q *qdrantStore) Close(context.Context) error { return nil }

func qdrantError(op string, resp *resty.Response) error {
	msg := gjson.GetBytes(resp.Body(), "status.error").String()
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("qdrant: %s failed with status %d: %s", op, resp.StatusCode(), msg)
}
