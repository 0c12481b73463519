package main

import (
	"fmt"

	"github.com/saeid-a/CoachEscrow/internal/services"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	depositHolder string
	depositAmount string
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Credit a holder with units of the payment asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(depositAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount %q: %w", depositAmount, err)
		}

		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		ledger := services.NewLedgerService(store, nil)
		operator := services.AuthContext{Identity: "escrowctl", Role: services.RoleAdmin}
		balance, err := ledger.Deposit(cmd.Context(), operator, depositHolder, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now holds %s %s\n", balance.Holder, balance.Balance, balance.Asset)
		return nil
	},
}

func init() {
	depositCmd.Flags().StringVar(&depositHolder, "holder", "", "identity to credit")
	depositCmd.Flags().StringVar(&depositAmount, "amount", "", "whole number of asset units")
	_ = depositCmd.MarkFlagRequired("holder")
	_ = depositCmd.MarkFlagRequired("amount")
}
