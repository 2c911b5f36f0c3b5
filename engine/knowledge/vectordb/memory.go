package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

// memoryStore keeps records in process. It backs local development and tests.
type memoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]knowledge.Record
}

func newMemoryStore(cfg *Config) *memoryStore {
	return &memoryStore{dimension: cfg.Dimension, records: make(map[string]knowledge.Record)}
}

func (s *memoryStore) Upsert(_ context.Context, records []knowledge.Record) error {
	for i := range records {
		if len(records[i].Embedding) != s.dimension {
			return fmt.Errorf("memory: record %q dimension mismatch (got %d want %d)",
				records[i].ID, len(records[i].Embedding), s.dimension)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		rec.Embedding = append([]float32(nil), rec.Embedding...)
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *memoryStore) Search(_ context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("memory: query dimension mismatch (got %d want %d)", len(query), s.dimension)
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	s.mu.RLock()
	candidates := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		score := cosineSimilarity(rec.Embedding, query)
		if score < opts.MinScore {
			continue
		}
		candidates = append(candidates, Match{
			ID:       rec.ID,
			Title:    rec.Title,
			Content:  rec.Content,
			Category: rec.Category,
			Score:    score,
		})
	}
	s.mu.RUnlock()
	SortMatches(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func (s *memoryStore) Close(context.Context) error { return nil }

// SortMatches orders by score descending, breaking ties by ID.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
