package cli

import (
	"fmt"

	"quiz-score-service/internal/config"
	pgstore "quiz-score-service/internal/infra/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			applied, err := pgstore.Migrate(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Strings("migrations", applied))
			return nil
		},
	}
}
