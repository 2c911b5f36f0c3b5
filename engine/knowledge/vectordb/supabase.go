package vectordb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

const (
	defaultSearchRPC = "search_knowledge_base"
	ensureSchemaRPC  = "ensure_vector_extension"
)

// supabaseStore talks to a pgvector table through the PostgREST gateway.
// Similarity search runs in a SQL function exposed as an RPC.
type supabaseStore struct {
	client    *resty.Client
	table     string
	searchRPC string
	dimension int
}

type supabaseRow struct {
	ID         any     `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

func newSupabaseStore(cfg *Config) *supabaseStore {
	base := strings.TrimRight(cfg.DSN, "/") + "/rest/v1"
	client := newRestClient(cfg, base).
		SetHeader("apikey", cfg.APIKey).
		SetAuthToken(cfg.APIKey)
	rpc := cfg.RPCFunction
	if rpc == "" {
		rpc = defaultSearchRPC
	}
	return &supabaseStore{client: client, table: cfg.Table, searchRPC: rpc, dimension: cfg.Dimension}
}

// EnsureSchema asks the database to enable the vector extension.
func (s *supabaseStore) EnsureSchema(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).SetBody(map[string]any{}).Post("/rpc/" + ensureSchemaRPC)
	if err != nil {
		return fmt.Errorf("supabase: %s: %w", ensureSchemaRPC, err)
	}
	if resp.IsError() {
		return supabaseError(ensureSchemaRPC, resp)
	}
	return nil
}

func (s *supabaseStore) Upsert(ctx context.Context, records []knowledge.Record) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(records))
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("supabase: record %q dimension mismatch (got %d want %d)",
				rec.ID, len(rec.Embedding), s.dimension)
		}
		created := rec.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		rows = append(rows, map[string]any{
			"id":         rec.ID,
			"title":      rec.Title,
			"content":    rec.Content,
			"category":   rec.Category,
			"embedding":  rec.Embedding,
			"created_at": created.Format(time.RFC3339Nano),
		})
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(rows).
		Post("/" + s.table)
	if err != nil {
		recordVectorError(ctx, "upsert", string(ProviderSupabase))
		return fmt.Errorf("supabase: upsert: %w", err)
	}
	if resp.IsError() {
		recordVectorError(ctx, "upsert", string(ProviderSupabase))
		return supabaseError("upsert", resp)
	}
	return nil
}

func (s *supabaseStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("supabase: query dimension mismatch (got %d want %d)", len(query), s.dimension)
	}
	limit := opts.TopK
	if limit <= 0 {
		limit = defaultTopK
	}
	var rows []supabaseRow
	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query_embedding":      query,
			"similarity_threshold": opts.MinScore,
			"match_count":          limit,
		}).
		SetResult(&rows).
		Post("/rpc/" + s.searchRPC)
	if err != nil {
		recordVectorError(ctx, "search", string(ProviderSupabase))
		return nil, fmt.Errorf("supabase: search: %w", err)
	}
	if resp.IsError() {
		recordVectorError(ctx, "search", string(ProviderSupabase))
		return nil, supabaseError("search", resp)
	}
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		if row.Similarity < opts.MinScore {
			continue
		}
		matches = append(matches, Match{
			ID:       fmt.Sprint(row.ID),
			Title:    row.Title,
			Content:  row.Content,
			Category: row.Category,
			Score:    row.Similarity,
		})
	}
	SortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	recordVectorSearch(ctx, string(ProviderSupabase), limit, time.Since(start), matches)
	return matches, nil
}

func (s *supabaseStore) Close(context.Context) error { return nil }

func supabaseError(op string, resp *resty.Response) error {
	msg := gjson.GetBytes(resp.Body(), "message").String()
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("supabase: %s failed with status %d: %s", op, resp.StatusCode(), msg)
}
