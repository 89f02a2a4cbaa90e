package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"telegram-entitlement-bot/internal/config"
	pg "telegram-entitlement-bot/internal/infra/db/postgres"
	"telegram-entitlement-bot/internal/infra/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the ledger schema to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath, devMode)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.Database.URL == "" {
			return errors.New("database.url is required")
		}
		logger := logging.New(cfg.Log, cfg.Runtime.Dev)

		pool, err := pg.NewPgxPool(cmd.Context(), cfg.Database.URL, 2)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := pg.Migrate(cmd.Context(), pool); err != nil {
			return err
		}
		logger.Info().Msg("schema applied")
		return nil
	},
}
