package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/engine/knowledge"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	failFor  map[string]int
	attempts map[string]int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) core.Result[[]float32] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempts == nil {
		f.attempts = map[string]int{}
	}
	f.attempts[text]++
	if f.failFor[text] >= f.attempts[text] {
		return core.Failed[[]float32](errors.New("ollama down"))
	}
	return core.Ok([]float32{0.1, 0.2})
}

type fakeBatch struct {
	vectors [][]float32
	err     error
	calls   int
}

func (b *fakeBatch) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	if b.vectors != nil {
		return b.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	records   []knowledge.Record
	attempted []string
	failOn    string
	failTimes int
	ensured   int
	ensureErr error
}

func (s *fakeStore) Upsert(_ context.Context, records []knowledge.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.attempted = append(s.attempted, r.ID)
	}
	if s.failTimes > 0 {
		s.failTimes--
		return errors.New("connection reset")
	}
	for _, r := range records {
		if r.Title == s.failOn {
			return errors.New("insert rejected")
		}
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *fakeStore) EnsureSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured++
	return s.ensureErr
}

var items = []knowledge.Item{
	{Title: "A", Content: "alpha", Category: "one"},
	{Title: "B", Content: "bravo", Category: "two"},
	{Title: "C", Content: "charlie", Category: "three"},
}

func TestPopulator_Populate(t *testing.T) {
	t.Run("Should store every item of the default corpus", func(t *testing.T) {
		store := &fakeStore{}
		p, err := NewPopulator(&fakeEmbedder{}, store, Options{})
		require.NoError(t, err)
		summary, err := p.Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, len(knowledge.Corpus()), summary.SuccessCount)
		assert.Zero(t, summary.FailCount)
		assert.Equal(t, "Knowledge base populated: 11 successful, 0 failed", summary.Message())
		assert.Equal(t, 1, store.ensured)
		ids := map[string]bool{}
		for _, r := range store.records {
			assert.Len(t, r.Embedding, 2)
			assert.False(t, r.CreatedAt.IsZero())
			ids[r.ID] = true
		}
		assert.Len(t, ids, len(store.records))
	})

	t.Run("Should count embedding and store failures without aborting", func(t *testing.T) {
		emb := &fakeEmbedder{failFor: map[string]int{"A alpha": 99}}
		store := &fakeStore{failOn: "C"}
		p, err := NewPopulator(emb, store, Options{Concurrency: 2})
		require.NoError(t, err)
		summary, err := p.WithItems(items).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SuccessCount)
		assert.Equal(t, 2, summary.FailCount)
		require.Len(t, store.records, 1)
		assert.Equal(t, "B", store.records[0].Title)
	})

	t.Run("Should retry transient embedding failures", func(t *testing.T) {
		emb := &fakeEmbedder{failFor: map[string]int{"A alpha": 1}}
		p, err := NewPopulator(emb, &fakeStore{}, Options{Retries: 2, RetryBase: 1})
		require.NoError(t, err)
		summary, err := p.WithItems(items[:1]).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SuccessCount)
		assert.Equal(t, 2, emb.attempts["A alpha"])
	})

	t.Run("Should keep the record id stable across store retries", func(t *testing.T) {
		store := &fakeStore{failTimes: 2}
		p, err := NewPopulator(&fakeEmbedder{}, store, Options{Retries: 3, RetryBase: 1})
		require.NoError(t, err)
		generated := 0
		p.newID = func() string {
			generated++
			return fmt.Sprintf("id-%d", generated)
		}
		summary, err := p.WithItems(items[:1]).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.SuccessCount)
		assert.Equal(t, 1, generated)
		assert.Equal(t, []string{"id-1", "id-1", "id-1"}, store.attempted)
		require.Len(t, store.records, 1)
		assert.Equal(t, "id-1", store.records[0].ID)
	})

	t.Run("Should embed the corpus in one batch when available", func(t *testing.T) {
		emb := &fakeEmbedder{}
		batch := &fakeBatch{}
		store := &fakeStore{}
		p, err := NewPopulator(emb, store, Options{Batch: batch})
		require.NoError(t, err)
		summary, err := p.WithItems(items).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.SuccessCount)
		assert.Equal(t, 1, batch.calls)
		assert.Empty(t, emb.attempts)
		byTitle := map[string][]float32{}
		for _, r := range store.records {
			byTitle[r.Title] = r.Embedding
		}
		assert.Equal(t, []float32{0, 1}, byTitle["A"])
		assert.Equal(t, []float32{2, 1}, byTitle["C"])
	})

	t.Run("Should fall back to single embeddings when the batch fails", func(t *testing.T) {
		emb := &fakeEmbedder{failFor: map[string]int{"B bravo": 99}}
		batch := &fakeBatch{err: errors.New("ollama down")}
		store := &fakeStore{}
		p, err := NewPopulator(emb, store, Options{Batch: batch})
		require.NoError(t, err)
		summary, err := p.WithItems(items).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.SuccessCount)
		assert.Equal(t, 1, summary.FailCount)
		assert.Equal(t, 1, emb.attempts["A alpha"])
		for _, r := range store.records {
			assert.Equal(t, []float32{0.1, 0.2}, r.Embedding)
		}
	})

	t.Run("Should fall back when the batch returns too few vectors", func(t *testing.T) {
		emb := &fakeEmbedder{}
		batch := &fakeBatch{vectors: [][]float32{{9, 9}}}
		store := &fakeStore{}
		p, err := NewPopulator(emb, store, Options{Batch: batch})
		require.NoError(t, err)
		summary, err := p.WithItems(items).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.SuccessCount)
		assert.Len(t, emb.attempts, 3)
	})

	t.Run("Should continue when schema bootstrap fails", func(t *testing.T) {
		store := &fakeStore{ensureErr: errors.New("rpc missing")}
		p, err := NewPopulator(&fakeEmbedder{}, store, Options{})
		require.NoError(t, err)
		summary, err := p.WithItems(items).Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 3, summary.SuccessCount)
	})

	t.Run("Should report cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		p, err := NewPopulator(&fakeEmbedder{}, &fakeStore{}, Options{})
		require.NoError(t, err)
		_, err = p.WithItems(items).Populate(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewPopulator(t *testing.T) {
	t.Run("Should require dependencies", func(t *testing.T) {
		_, err := NewPopulator(nil, &fakeStore{}, Options{})
		require.Error(t, err)
		_, err = NewPopulator(&fakeEmbedder{}, nil, Options{})
		require.Error(t, err)
	})
}
