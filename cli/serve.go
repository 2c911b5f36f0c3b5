package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pharens/pharens-ai/engine/infra/server"
	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the HTTP API",
		RunE:    runServe,
	}
	f := cmd.Flags()
	f.String("host", "", "Address to bind")
	f.Int("port", 0, "Port to listen on")
	f.Bool("cors", true, "Enable CORS handling")
	f.Bool("metrics", false, "Expose Prometheus metrics")
	f.Bool("rate-limit", false, "Enable per-IP rate limiting")
	addModelFlags(cmd)
	return cmd
}

// addModelFlags registers the flags shared by serve and populate.
func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("ollama-url", "", "Ollama base URL")
	f.String("chat-model", "", "Generation model name")
	f.String("embedding-model", "", "Embedding model name")
	f.String("vector-provider", "", "Vector store: memory, pgvector, qdrant or supabase")
	f.String("vector-dsn", "", "Vector store connection string or URL")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	manager := config.ManagerFromContext(ctx)
	cfg := manager.Get()
	if cfg == nil {
		return errors.New("configuration missing from context")
	}
	log := logger.FromContext(ctx)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app, err := Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	srv, err := server.NewServer(cfg, app.State, server.RouterOptions{
		Monitoring: app.Monitoring,
		RateLimit:  app.RateLimit,
		Logger:     log,
	})
	if err != nil {
		return errors.Join(fmt.Errorf("failed to create server: %w", err), app.Close(ctx))
	}
	manager.OnChange(func(next *config.Config) {
		log.Info("Configuration file changed; restart to apply backend settings",
			"environment", next.Runtime.Environment, "log_level", next.Runtime.LogLevel)
	})
	srv.OnShutdown(manager.Close)
	srv.OnShutdown(app.Close)
	if !app.State.Calls.Configured() {
		log.Warn("Vapi private key is not set, outbound calls will fail")
	}
	return srv.Run(ctx)
}

// runUntil runs fn with a context cancelled on SIGINT or SIGTERM.
func runUntil(ctx context.Context, fn func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}
