package chat

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// TokenCounter measures how much of the prompt budget a string uses.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named BPE encoding.
func NewTiktokenCounter(encoding string) (TokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("chat: load token encoding %q: %w", encoding, err)
	}
	return tiktokenCounter{tke: tke}, nil
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// RuneCounter approximates one token per four runes.
type RuneCounter struct{}

func (RuneCounter) Count(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < 4 {
		return 1
	}
	return n / 4
}

// Window limits how much history reaches the prompt. It keeps at most
// MaxMessages of the most recent turns, then drops the oldest until the
// rendered lines fit in MaxTokens. Zero disables a bound.
type Window struct {
	MaxMessages int
	MaxTokens   int
	Counter     TokenCounter
}

// Apply returns the retained suffix of history in its original order.
func (w Window) Apply(history []Message) []Message {
	if w.MaxMessages > 0 && len(history) > w.MaxMessages {
		history = history[len(history)-w.MaxMessages:]
	}
	if w.MaxTokens <= 0 || len(history) == 0 {
		return history
	}
	counter := w.Counter
	if counter == nil {
		counter = RuneCounter{}
	}
	// lines are joined by "\n", which costs one token per separator at most
	costs := make([]int, len(history))
	total := 0
	for i, m := range history {
		costs[i] = counter.Count(historyLine(m)) + 1
		total += costs[i]
	}
	start := 0
	for start < len(history) && total > w.MaxTokens {
		total -= costs[start]
		start++
	}
	return history[start:]
}
