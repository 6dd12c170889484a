package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"malladmin/migrations"
	"malladmin/pkg/db"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			pool, err := db.NewConnection(cfg.DB, log)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool, log)
			if err != nil {
				return err
			}
			log.Info("Migrations complete", zap.Int("applied", len(applied)), zap.Strings("versions", applied))
			return nil
		},
	}
}
