package main

import (
	"fmt"
	"time"

	"github.com/saeid-a/CoachEscrow/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	tokenIdentity string
	tokenRole     string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token for an identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jwtSecret == "" {
			return fmt.Errorf("JWT_SECRET (or --jwt-secret) is required")
		}
		token, err := utils.GenerateTokenWithTTL(tokenIdentity, tokenRole, jwtSecret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenIdentity, "identity", "", "identity the token speaks for")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "optional role, e.g. admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", utils.DefaultTokenTTL, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("identity")
}
