package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpus(t *testing.T) {
	t.Run("Should hold eleven items with unique titles", func(t *testing.T) {
		items := Corpus()
		require.Len(t, items, 11)
		seen := make(map[string]struct{}, len(items))
		for _, it := range items {
			assert.NotEmpty(t, it.Content)
			assert.NotEmpty(t, it.Category)
			_, dup := seen[it.Title]
			assert.False(t, dup, "duplicate title %q", it.Title)
			seen[it.Title] = struct{}{}
		}
	})

	t.Run("Should include the agency contact details", func(t *testing.T) {
		var contact Item
		for _, it := range Corpus() {
			if it.Category == "contact" {
				contact = it
			}
		}
		assert.Equal(t, "Pharens AI Contact Information", contact.Title)
		assert.Contains(t, contact.Content, "+27 67 037 4461")
		assert.Contains(t, contact.Content, "+27 60 278 5621")
		assert.Contains(t, contact.Content, "cbd.pharen25@gmail.com")
	})

	t.Run("Should return an independent slice on every call", func(t *testing.T) {
		a := Corpus()
		a[0].Title = "changed"
		assert.Equal(t, "Social Media Marketing for Beauty Businesses", Corpus()[0].Title)
	})
}

func TestItemEmbeddingText(t *testing.T) {
	t.Run("Should join title and content with a space", func(t *testing.T) {
		it := Item{Title: "SEO", Content: "Rank locally."}
		assert.Equal(t, "SEO Rank locally.", it.EmbeddingText())
	})
}

func TestRetrievalResultContextLine(t *testing.T) {
	t.Run("Should render title and content", func(t *testing.T) {
		r := RetrievalResult{Title: "A", Content: "B", Score: 0.9}
		assert.Equal(t, "A: B", r.ContextLine())
	})
}
