package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/pkg/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pharens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func setup(t *testing.T, cmd *cobra.Command, args ...string) *config.Config {
	t.Helper()
	require.NoError(t, cmd.ParseFlags(args))
	require.NoError(t, SetupGlobalConfig(cmd))
	ctx := cmd.Context()
	manager := config.ManagerFromContext(ctx)
	t.Cleanup(func() { _ = manager.Close(ctx) })
	return manager.Get()
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should apply the YAML file over defaults", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 8080\n")
		cfg := setup(t, RootCmd(), "--config", path, "--env-file", "")
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Vector.Provider)
	})

	t.Run("Should let the environment override the YAML file", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7070")
		path := writeConfig(t, "server:\n  port: 8080\n")
		cfg := setup(t, RootCmd(), "--config", path, "--env-file", "")
		assert.Equal(t, 7070, cfg.Server.Port)
	})

	t.Run("Should let explicit flags override everything", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7070")
		root := RootCmd()
		serve, _, err := root.Find([]string{"serve"})
		require.NoError(t, err)
		path := writeConfig(t, "server:\n  port: 8080\n")
		cfg := setup(t, serve, "--config", path, "--env-file", "", "--port", "9090", "--vector-provider", "memory")
		assert.Equal(t, 9090, cfg.Server.Port)
	})

	t.Run("Should reject invalid configuration", func(t *testing.T) {
		path := writeConfig(t, "vector:\n  provider: redis\n")
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--env-file", ""}))
		require.Error(t, SetupGlobalConfig(cmd))
	})
}

func TestPopulateCommand(t *testing.T) {
	t.Run("Should embed the corpus and print the summary", func(t *testing.T) {
		ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/embeddings" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.1, 0.2, 0.3}})
		}))
		t.Cleanup(ollama.Close)
		path := writeConfig(t, "vector:\n  provider: memory\n  dimension: 3\n")
		root := RootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{
			"populate", "--config", path, "--env-file", "", "--log-level", "disabled",
			"--ollama-url", ollama.URL,
		})
		require.NoError(t, root.ExecuteContext(t.Context()))
		assert.Equal(t, "Knowledge base populated: 11 successful, 0 failed\n", out.String())
	})

	t.Run("Should count failures when the model is down", func(t *testing.T) {
		ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		}))
		t.Cleanup(ollama.Close)
		path := writeConfig(t, "vector:\n  dimension: 3\nknowledge:\n  populate_retries: 0\n")
		root := RootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{
			"populate", "--config", path, "--env-file", "", "--log-level", "disabled",
			"--ollama-url", ollama.URL,
		})
		require.NoError(t, root.ExecuteContext(t.Context()))
		assert.Equal(t, "Knowledge base populated: 0 successful, 11 failed\n", out.String())
	})
}
