package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	rerrors "github.com/slok/goresilience/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	calls atomic.Int32
	out   string
	err   error
	delay time.Duration
	panic bool
	last  Request
}

func (s *stubBackend) Complete(ctx context.Context, req Request) (string, error) {
	s.calls.Add(1)
	s.last = req
	if s.panic {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.out, s.err
}

func noBreaker() Config {
	cfg := DefaultConfig()
	cfg.Breaker.Enabled = false
	return cfg
}

func TestBuildPrompt(t *testing.T) {
	t.Run("Should frame system and user turns", func(t *testing.T) {
		assert.Equal(t, "System: be nice\n\nUser: hi\n\nAssistant:", BuildPrompt("be nice", "hi"))
	})
}

func TestClient_Generate(t *testing.T) {
	t.Run("Should return the completion verbatim", func(t *testing.T) {
		backend := &stubBackend{out: "  Try reels.\n"}
		c, err := NewClient(backend, noBreaker())
		require.NoError(t, err)
		text, ok := c.Generate(t.Context(), "sys", "help").Get()
		require.True(t, ok)
		assert.Equal(t, "  Try reels.\n", text)
		assert.Equal(t, "System: sys\n\nUser: help\n\nAssistant:", backend.last.Prompt)
		assert.Equal(t, DefaultModel, backend.last.Model)
		assert.InDelta(t, 0.7, backend.last.Temperature, 1e-9)
		assert.Equal(t, 500, backend.last.MaxTokens)
	})

	t.Run("Should fail on backend error", func(t *testing.T) {
		c, err := NewClient(&stubBackend{err: errors.New("503")}, noBreaker())
		require.NoError(t, err)
		assert.Error(t, c.Generate(t.Context(), "s", "u").Err())
	})

	t.Run("Should fail on an empty completion", func(t *testing.T) {
		c, err := NewClient(&stubBackend{}, noBreaker())
		require.NoError(t, err)
		assert.ErrorIs(t, c.Generate(t.Context(), "s", "u").Err(), ErrEmptyCompletion)
	})

	t.Run("Should fail when the backend exceeds the timeout", func(t *testing.T) {
		cfg := noBreaker()
		cfg.Timeout = 20 * time.Millisecond
		c, err := NewClient(&stubBackend{out: "late", delay: time.Second}, cfg)
		require.NoError(t, err)
		assert.Error(t, c.Generate(t.Context(), "s", "u").Err())
	})

	t.Run("Should convert a backend panic into a failure", func(t *testing.T) {
		c, err := NewClient(&stubBackend{panic: true}, noBreaker())
		require.NoError(t, err)
		assert.Error(t, c.Generate(t.Context(), "s", "u").Err())
	})

	t.Run("Should short-circuit once the breaker opens", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Breaker = BreakerConfig{Enabled: true, ErrorPercentThreshold: 50, MinimumRequests: 2, OpenStateWait: time.Minute}
		backend := &stubBackend{err: errors.New("connection refused")}
		c, err := NewClient(backend, cfg)
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			assert.Error(t, c.Generate(t.Context(), "s", "u").Err())
		}
		r := c.Generate(t.Context(), "s", "u")
		assert.ErrorIs(t, r.Err(), rerrors.ErrCircuitOpen)
		assert.Equal(t, int32(2), backend.calls.Load())
	})

	t.Run("Should require a backend", func(t *testing.T) {
		_, err := NewClient(nil, DefaultConfig())
		require.Error(t, err)
	})
}

func TestOllamaBackend_Complete(t *testing.T) {
	t.Run("Should post a non-streaming generate request", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"llama3.2:3b","response":"Post reels daily.","done":true}`))
		}))
		t.Cleanup(srv.Close)
		b, err := NewOllamaBackend(srv.URL, srv.Client())
		require.NoError(t, err)
		out, err := b.Complete(t.Context(), Request{Prompt: "p", Model: DefaultModel, Temperature: 0.7, MaxTokens: 500})
		require.NoError(t, err)
		assert.Equal(t, "Post reels daily.", out)
		assert.Equal(t, DefaultModel, got["model"])
		assert.Equal(t, "p", got["prompt"])
		assert.Equal(t, false, got["stream"])
		opts, ok := got["options"].(map[string]any)
		require.True(t, ok)
		assert.InDelta(t, 0.7, opts["temperature"], 1e-9)
		assert.InDelta(t, 500, opts["num_predict"], 0)
	})

	t.Run("Should surface non-2xx responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		}))
		t.Cleanup(srv.Close)
		b, err := NewOllamaBackend(srv.URL, srv.Client())
		require.NoError(t, err)
		_, err = b.Complete(t.Context(), Request{Prompt: "p", Model: "missing"})
		require.Error(t, err)
	})
}

func TestNewBackend(t *testing.T) {
	t.Run("Should build both providers", func(t *testing.T) {
		b, err := NewBackend(ProviderOllama, "http://localhost:11434", DefaultModel, nil)
		require.NoError(t, err)
		assert.IsType(t, &OllamaBackend{}, b)
		b, err = NewBackend(ProviderLangchain, "http://localhost:11434", DefaultModel, nil)
		require.NoError(t, err)
		assert.IsType(t, &LangchainBackend{}, b)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := NewBackend("openai", "", DefaultModel, nil)
		require.Error(t, err)
	})
}
