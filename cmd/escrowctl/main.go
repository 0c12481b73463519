// Command escrowctl administers an escrow deployment directly against its
// Postgres database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbURL     string
	jwtSecret string
)

var rootCmd = &cobra.Command{
	Use:           "escrowctl <command>",
	Short:         "Administer the coaching escrow service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "Postgres connection URL")
	rootCmd.PersistentFlags().StringVar(&jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "HS256 secret used by the API")

	rootCmd.AddCommand(migrateCmd, initCmd, depositCmd, tokenCmd)
}

func requireDBURL() error {
	if dbURL == "" {
		return fmt.Errorf("DB_URL (or --db-url) is required")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
