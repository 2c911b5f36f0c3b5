// Package cli exposes the pharens command line: the HTTP server and the
// knowledge population job.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const (
	defaultConfigFile = "pharens.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pharens",
		Short:         "Pharens AI backend",
		Long:          "Chat assistant, knowledge base and contact endpoints for the Pharens AI website.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to the YAML configuration file")
	flags.String("env-file", defaultEnvFile, "Path to a .env file loaded before configuration")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit JSON logs")
	flags.Bool("log-source", false, "Include source locations in logs")
	root.AddCommand(ServeCmd(), PopulateCmd())
	return root
}

// SetupGlobalConfig loads the .env file and the layered configuration, then
// installs the logger and the configuration manager on the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	sources := []config.Source{config.NewDefaultProvider()}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewEnvProvider(), config.NewCLIProvider(extractCLIFlags(cmd)))
	manager := config.NewManager(config.NewService())
	cfg, err := manager.Load(ctx, sources...)
	if err != nil {
		return err
	}
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		level = cfg.Runtime.LogLevel
	}
	if !cmd.Flags().Changed("log-json") {
		logJSON = cfg.Runtime.LogJSON
	}
	log := logger.SetupLogger(level, logJSON, logSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "config_file", configFile, "environment", cfg.Runtime.Environment)
	return nil
}
