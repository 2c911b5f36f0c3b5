package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(&Config{Dimension: 4})

	t.Run("Should upsert and search by cosine similarity", func(t *testing.T) {
		records := []knowledge.Record{
			{ID: "a", Title: "SEO", Content: "local search", Category: "services", Embedding: []float32{1, 0, 0, 0}},
			{ID: "b", Title: "Instagram", Content: "reels", Category: "social", Embedding: []float32{0, 1, 0, 0}},
		}
		require.NoError(t, store.Upsert(ctx, records))
		matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, SearchOptions{TopK: 1})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].ID)
		assert.Equal(t, "SEO", matches[0].Title)
		assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	})

	t.Run("Should return every category ranked by score", func(t *testing.T) {
		matches, err := store.Search(ctx, []float32{0.2, 1, 0, 0}, SearchOptions{TopK: 2})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "b", matches[0].ID)
		assert.Equal(t, "social", matches[0].Category)
	})

	t.Run("Should drop matches below the minimum score", func(t *testing.T) {
		matches, err := store.Search(ctx, []float32{1, 0.1, 0, 0}, SearchOptions{TopK: 5, MinScore: 0.7})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].ID)
	})

	t.Run("Should replace a record with the same id", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, []knowledge.Record{
			{ID: "a", Title: "SEO v2", Embedding: []float32{1, 0, 0, 0}},
		}))
		matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, SearchOptions{TopK: 1})
		require.NoError(t, err)
		assert.Equal(t, "SEO v2", matches[0].Title)
	})

	t.Run("Should fail upsert when dimension mismatches", func(t *testing.T) {
		err := newMemoryStore(&Config{Dimension: 4}).Upsert(ctx, []knowledge.Record{{ID: "bad", Embedding: []float32{1, 1, 1}}})
		require.Error(t, err)
	})

	t.Run("Should fail search when query dimension mismatches", func(t *testing.T) {
		_, err := newMemoryStore(&Config{Dimension: 2}).Search(ctx, []float32{1, 0, 0}, SearchOptions{TopK: 1})
		require.Error(t, err)
	})

	t.Run("Should respect top k when fewer records exist", func(t *testing.T) {
		limited := newMemoryStore(&Config{Dimension: 2})
		require.NoError(t, limited.Upsert(ctx, []knowledge.Record{
			{ID: "d", Embedding: []float32{1, 0}},
			{ID: "e", Embedding: []float32{0, 1}},
		}))
		matches, err := limited.Search(ctx, []float32{1, 0}, SearchOptions{TopK: 10})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "d", matches[0].ID)
	})
}

func TestSortMatches(t *testing.T) {
	t.Run("Should order by score then id", func(t *testing.T) {
		matches := []Match{{ID: "b", Score: 0.8}, {ID: "c", Score: 0.9}, {ID: "a", Score: 0.8}}
		SortMatches(matches)
		assert.Equal(t, []string{"c", "a", "b"}, []string{matches[0].ID, matches[1].ID, matches[2].ID})
	})
}

func TestNew(t *testing.T) {
	t.Run("Should build the memory provider with the default table", func(t *testing.T) {
		cfg := &Config{ID: "kb", Provider: ProviderMemory, Dimension: 3}
		store, err := New(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, defaultTable, cfg.Table)
		require.NoError(t, store.Close(context.Background()))
	})

	t.Run("Should require a dsn for pgvector", func(t *testing.T) {
		_, err := New(context.Background(), &Config{Provider: ProviderPGVector, Dimension: 3})
		require.ErrorIs(t, err, errMissingDSN)
	})

	t.Run("Should require an api key for supabase", func(t *testing.T) {
		_, err := New(context.Background(), &Config{Provider: ProviderSupabase, DSN: "https://x.supabase.co", Dimension: 3})
		require.ErrorIs(t, err, errMissingAPIKey)
	})

	t.Run("Should reject a non-positive dimension", func(t *testing.T) {
		_, err := New(context.Background(), &Config{Provider: ProviderMemory})
		require.ErrorIs(t, err, errInvalidDimension)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := New(context.Background(), &Config{Provider: "redis", Dimension: 3})
		require.Error(t, err)
	})
}
