// Package knowledge holds the beauty-marketing knowledge base: its record
// types, the seed corpus and the retrieval instrumentation.
package knowledge

import "time"

// Item is a corpus entry before it has been embedded.
type Item struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// EmbeddingText is the text embedded for an item at population time.
func (i Item) EmbeddingText() string {
	return i.Title + " " + i.Content
}

// Record is a persisted knowledge item. Records are only stored once their
// embedding has been computed.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievalResult is a snippet returned by similarity search.
type RetrievalResult struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"similarity"`
}

// ContextLine renders the result the way it is quoted to the model.
func (r RetrievalResult) ContextLine() string {
	return r.Title + ": " + r.Content
}
