package telephony

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVapi(t *testing.T, status int, body string) (*httptest.Server, *map[string]any, *http.Header) {
	t.Helper()
	got := map[string]any{}
	hdr := http.Header{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call/phone", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		hdr = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &hdr
}

func TestClient_StartCall(t *testing.T) {
	fixed := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)

	t.Run("Should post the call with defaults and return the call id", func(t *testing.T) {
		srv, got, hdr := newVapi(t, http.StatusCreated, `{"id":"call_123","status":"queued"}`)
		c := NewClient(Config{BaseURL: srv.URL, PrivateKey: "pk", AssistantID: "asst_1"})
		c.now = func() time.Time { return fixed }
		res, err := c.StartCall(t.Context(), CallRequest{PhoneNumber: "+27602785621"})
		require.NoError(t, err)
		assert.Equal(t, CallResult{CallID: "call_123", Status: "queued"}, res)
		assert.Equal(t, "Bearer pk", hdr.Get("Authorization"))
		body := *got
		assert.Equal(t, "asst_1", body["assistantId"])
		assert.Equal(t, "+27602785621", body["phoneNumber"])
		assert.Equal(t, map[string]any{"name": "Customer"}, body["customer"])
		assert.Equal(t, map[string]any{"source": "contact_form", "timestamp": "2025-03-04T10:30:00.000Z"}, body["metadata"])
	})

	t.Run("Should let caller metadata override defaults", func(t *testing.T) {
		srv, got, _ := newVapi(t, http.StatusOK, `{"id":"c","status":"ringing"}`)
		c := NewClient(Config{BaseURL: srv.URL, PrivateKey: "pk"})
		_, err := c.StartCall(t.Context(), CallRequest{
			PhoneNumber:  "+27602785621",
			CustomerName: "Thandi",
			Metadata:     map[string]any{"source": "pricing_page", "plan": "growth"},
		})
		require.NoError(t, err)
		body := *got
		assert.Equal(t, map[string]any{"name": "Thandi"}, body["customer"])
		md := body["metadata"].(map[string]any)
		assert.Equal(t, "pricing_page", md["source"])
		assert.Equal(t, "growth", md["plan"])
		assert.NotEmpty(t, md["timestamp"])
	})

	t.Run("Should surface provider rejections with their status", func(t *testing.T) {
		srv, _, _ := newVapi(t, http.StatusBadRequest, `{"message":"phoneNumber must be E.164"}`)
		c := NewClient(Config{BaseURL: srv.URL, PrivateKey: "pk"})
		_, err := c.StartCall(t.Context(), CallRequest{PhoneNumber: "123"})
		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
		assert.Equal(t, "phoneNumber must be E.164", perr.Message)
	})

	t.Run("Should use a generic reason when the provider gives none", func(t *testing.T) {
		srv, _, _ := newVapi(t, http.StatusUnauthorized, `{}`)
		c := NewClient(Config{BaseURL: srv.URL, PrivateKey: "pk"})
		_, err := c.StartCall(t.Context(), CallRequest{PhoneNumber: "+27602785621"})
		var perr *ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "Failed to initiate call", perr.Message)
	})

	t.Run("Should refuse to call without a key", func(t *testing.T) {
		c := NewClient(Config{})
		assert.False(t, c.Configured())
		_, err := c.StartCall(t.Context(), CallRequest{PhoneNumber: "+27602785621"})
		require.ErrorIs(t, err, ErrNotConfigured)
	})
}
