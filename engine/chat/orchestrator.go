package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pharens/pharens-ai/engine/core"
	"github.com/pharens/pharens-ai/engine/knowledge"
	"github.com/pharens/pharens-ai/pkg/logger"
)

type Embedder interface {
	Embed(ctx context.Context, text string) core.Result[[]float32]
}

type Retriever interface {
	Search(ctx context.Context, vector []float32, threshold float64, limit int) []knowledge.RetrievalResult
}

type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) core.Result[string]
}

const (
	DefaultThreshold = 0.7
	DefaultLimit     = 5
)

type Options struct {
	Threshold float64
	Limit     int
	History   Window
}

func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Limit:     DefaultLimit,
		History:   Window{MaxMessages: 10, MaxTokens: 1024},
	}
}

// Orchestrator holds only immutable collaborators and is safe for concurrent use.
type Orchestrator struct {
	embedder  Embedder
	retriever Retriever
	generator Generator
	opts      Options
}

func NewOrchestrator(emb Embedder, ret Retriever, gen Generator, opts Options) (*Orchestrator, error) {
	switch {
	case emb == nil:
		return nil, errors.New("chat: embedder is required")
	case ret == nil:
		return nil, errors.New("chat: retriever is required")
	case gen == nil:
		return nil, errors.New("chat: generator is required")
	}
	return &Orchestrator{embedder: emb, retriever: ret, generator: gen, opts: opts}, nil
}

// Reply always produces an answer. Upstream failures and panics degrade to
// the keyword fallback.
func (o *Orchestrator) Reply(ctx context.Context, req Request) (resp Response) {
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Chat pipeline panicked", "panic", fmt.Sprint(r))
			resp = o.fallback(ctx, req.Message)
		}
	}()
	if strings.TrimSpace(req.Message) == "" {
		return o.fallback(ctx, req.Message)
	}
	systemPrompt := o.SystemPrompt(ctx, req)
	text, ok := o.generator.Generate(ctx, systemPrompt, req.Message).Get()
	if !ok {
		return o.fallback(ctx, req.Message)
	}
	recordOutcome(ctx, outcomeGenerated, "")
	return Response{Response: text}
}

// SystemPrompt runs the embed and retrieve steps and assembles the prompt
// that will be sent with the user's message.
func (o *Orchestrator) SystemPrompt(ctx context.Context, req Request) string {
	var results []knowledge.RetrievalResult
	if vec, ok := o.embedder.Embed(ctx, req.Message).Get(); ok {
		results = o.retriever.Search(ctx, vec, o.opts.Threshold, o.opts.Limit)
	} else {
		knowledge.RecordRetrievalEmpty(ctx, "skipped")
	}
	history := o.opts.History.Apply(req.ConversationHistory)
	logger.FromContext(ctx).Debug("Assembling chat prompt",
		"snippets", len(results),
		"history_in", len(req.ConversationHistory),
		"history_kept", len(history),
	)
	return BuildSystemPrompt(FormatContext(results), FormatHistory(history))
}

func (o *Orchestrator) fallback(ctx context.Context, message string) Response {
	reply, category := classify(message)
	recordOutcome(ctx, outcomeFallback, category)
	return Response{Response: reply}
}
