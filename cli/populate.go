package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

func PopulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Embed the built-in corpus into the vector store",
		Args:  cobra.NoArgs,
		RunE:  runPopulate,
	}
	cmd.Flags().Int("concurrency", 0, "Items embedded in parallel")
	addModelFlags(cmd)
	return cmd
}

func runPopulate(cmd *cobra.Command, _ []string) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("configuration missing from context")
	}
	return runUntil(cmd.Context(), func(ctx context.Context) (err error) {
		app := &App{}
		defer func() {
			err = errors.Join(err, app.Close(context.WithoutCancel(ctx)))
		}()
		kd, err := newKnowledge(ctx, cfg, app)
		if err != nil {
			return err
		}
		summary, err := kd.populator.Populate(ctx)
		if err != nil {
			return fmt.Errorf("population aborted: %w", err)
		}
		logger.FromContext(ctx).Info("Population finished",
			"success_count", summary.SuccessCount,
			"fail_count", summary.FailCount,
		)
		_, err = fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
		return err
	})
}
