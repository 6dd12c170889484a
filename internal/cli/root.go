// Package cli wires the malladmin commands: the HTTP API, the background
// worker and the schema migrator.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malladmin/internal/config"
	"malladmin/pkg/logger"
)

type rootOptions struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "malladmin",
		Short: "Mall management admin backend",
		Long: `malladmin serves the mall administration API and runs the background
worker that publishes outbox events and delivers staff notifications.

Commands:
  serve    - Run the HTTP API
  worker   - Run the outbox dispatcher and event consumers
  migrate  - Apply pending database migrations`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	root.AddCommand(
		newServeCommand(opts),
		newWorkerCommand(opts),
		newMigrateCommand(opts),
	)
	return root
}

// Execute runs the root command with ctx, which is cancelled on shutdown
// signals by main.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.NewLogger(cfg.Log), nil
}
