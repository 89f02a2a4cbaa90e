package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"telegram-entitlement-bot/internal/config"
	"telegram-entitlement-bot/internal/infra/api"
)

var (
	tokenStaffID int64
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin API bearer token for a staff member",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath, devMode)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.Admin.JWTSecret == "" {
			return errors.New("admin.jwt_secret (ADMIN_JWT_SECRET) is required")
		}
		if !isStaff(cfg, tokenStaffID) {
			return fmt.Errorf("user %d is not listed in bot.admin_ids", tokenStaffID)
		}
		ttl := cfg.Admin.TokenTTL
		if tokenTTL > 0 {
			ttl = tokenTTL
		}
		tok, err := api.NewAuthManager(cfg.Admin.JWTSecret, ttl).Mint(tokenStaffID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenStaffID, "staff", 0, "Telegram user id of the staff member (must be an admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to admin.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("staff")
}

func isStaff(cfg *config.Config, id int64) bool {
	for _, a := range cfg.Bot.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
