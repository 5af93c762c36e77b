package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicing/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing - invoice lifecycle management with reports and exports",
	Long: `Invoicing manages the lifecycle of customer invoices: creation with generated
invoice numbers, validated status changes, querying, revenue and aging reports, and
CSV, Excel and PDF exports.

Run "invoicing serve" to start the HTTP API, or use the invoice, report and export
commands to work with the configured store directly.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invoicing CLI executed")

		fmt.Println("Welcome to Invoicing!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
