package vectordb

import (
	"context"
	"net/http"
	"time"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

// Provider enumerates supported vector database backends.
type Provider string

const (
	ProviderMemory   Provider = "memory"
	ProviderPGVector Provider = "pgvector"
	ProviderQdrant   Provider = "qdrant"
	// ProviderSupabase reaches a pgvector table through Supabase's REST API.
	ProviderSupabase Provider = "supabase"
)

const defaultTopK = 5

// SearchOptions controls similarity search execution.
type SearchOptions struct {
	TopK     int
	MinScore float64
}

// Match is a single similarity search hit.
type Match struct {
	ID       string
	Title    string
	Content  string
	Category string
	Score    float64
}

// Store is the contract shared by every backend.
type Store interface {
	Upsert(ctx context.Context, records []knowledge.Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Close(ctx context.Context) error
}

// SchemaEnsurer is implemented by stores that can bootstrap their backing
// table or collection on demand.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Config captures connection details for a vector database.
type Config struct {
	ID          string
	Provider    Provider
	DSN         string
	Table       string
	Dimension   int
	EnsureIndex bool
	APIKey      string
	RPCFunction string
	Timeout     time.Duration
	MaxConns    int32
	HTTPClient  *http.Client
}
