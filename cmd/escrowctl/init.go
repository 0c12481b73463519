package main

import (
	"fmt"

	"github.com/saeid-a/CoachEscrow/internal/services"
	"github.com/spf13/cobra"
)

var initAsset string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the payment asset (allowed once)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		escrow := services.NewEscrowService(store, services.NewRiskTracker(store), nil, nil, services.EscrowOptions{})
		if err := escrow.Initialize(cmd.Context(), initAsset); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Escrow initialized with payment asset %s\n", initAsset)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initAsset, "asset", "", "payment asset identifier")
	_ = initCmd.MarkFlagRequired("asset")
}
