package main

import (
	"errors"

	"swiftjobs-backend/internal/repository/postgres"
	"swiftjobs-backend/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DBUrl == "" {
			return errors.New("migrate needs --database-url or DATABASE_URL")
		}

		pool, err := database.NewPostgresConnection(cmd.Context(), cfg.DBUrl, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		log.Info("schema applied", zap.String("host", pool.Config().ConnConfig.Host))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
