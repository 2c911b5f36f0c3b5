package retriever_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/engine/knowledge/retriever"
	"github.com/pharens/pharens-ai/engine/knowledge/vectordb"
)

// rawStore ignores the search options and returns whatever it holds.
type rawStore struct {
	matches []vectordb.Match
	err     error
	calls   int
	opts    vectordb.SearchOptions
	block   bool
}

func (s *rawStore) Search(ctx context.Context, _ []float32, opts vectordb.SearchOptions) ([]vectordb.Match, error) {
	s.calls++
	s.opts = opts
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return append([]vectordb.Match(nil), s.matches...), s.err
}

func TestGateway_Search(t *testing.T) {
	t.Run("Should pass threshold and limit to the store", func(t *testing.T) {
		store := &rawStore{matches: []vectordb.Match{{ID: "1", Title: "SEO", Content: "local", Score: 0.8}}}
		g, err := retriever.NewGateway(store)
		require.NoError(t, err)
		results := g.Search(t.Context(), []float32{1}, 0.7, 5)
		require.Len(t, results, 1)
		assert.Equal(t, "SEO", results[0].Title)
		assert.Equal(t, 5, store.opts.TopK)
		assert.InDelta(t, 0.7, store.opts.MinScore, 1e-9)
	})

	t.Run("Should not call the store when limit is zero", func(t *testing.T) {
		store := &rawStore{}
		g, err := retriever.NewGateway(store)
		require.NoError(t, err)
		results := g.Search(t.Context(), []float32{1}, 0.7, 0)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Zero(t, store.calls)
	})

	t.Run("Should return an empty slice on backend error", func(t *testing.T) {
		g, err := retriever.NewGateway(&rawStore{err: errors.New("rpc failed")})
		require.NoError(t, err)
		results := g.Search(t.Context(), []float32{1}, 0.7, 5)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("Should treat a timeout as an empty result", func(t *testing.T) {
		g, err := retriever.NewGateway(&rawStore{block: true}, retriever.WithTimeout(20*time.Millisecond))
		require.NoError(t, err)
		assert.Empty(t, g.Search(t.Context(), []float32{1}, 0.7, 5))
	})

	t.Run("Should enforce the contract on arbitrary backend output", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for round := 0; round < 50; round++ {
			raw := make([]vectordb.Match, rng.Intn(20))
			for i := range raw {
				raw[i] = vectordb.Match{ID: fmt.Sprintf("%02d", i), Title: "t", Score: rng.Float64()}
			}
			threshold := rng.Float64()
			limit := rng.Intn(8)
			g, err := retriever.NewGateway(&rawStore{matches: raw})
			require.NoError(t, err)
			results := g.Search(t.Context(), []float32{1}, threshold, limit)
			assert.LessOrEqual(t, len(results), limit)
			for i, r := range results {
				assert.GreaterOrEqual(t, r.Score, threshold)
				if i > 0 {
					assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
				}
			}
		}
	})

	t.Run("Should require a store", func(t *testing.T) {
		_, err := retriever.NewGateway(nil)
		require.Error(t, err)
	})
}
