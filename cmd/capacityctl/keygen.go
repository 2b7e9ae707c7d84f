package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/auth"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen [user id]",
		Short: "Generate an HMAC-signed API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			key, err := generateKey(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}
}

func generateKey(cfg *config.Config, userID string) (string, error) {
	if cfg.APIMasterSecret == "" {
		return "", fmt.Errorf("%sAPI_MASTER_SECRET is not set", config.EnvPrefix)
	}
	if userID == "" || strings.Contains(userID, ".") {
		return "", auth.ErrInvalidKeyFormat
	}
	return auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.TokenTTL).GenerateHMACKey(userID), nil
}
