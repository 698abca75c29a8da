package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"itledger/internal/config"
	"itledger/internal/logger"
)

var version = "1.0.0"

// skipAuth marks commands that run without logging in.
const skipAuth = "skip-auth"

var rootCmd = &cobra.Command{
	Use:   "itledger",
	Short: "itledger - quotes, sales notes and tickets for a small IT business",
	Long: `itledger keeps the quotes, sales notes and expense/income tickets of a
small IT service business in a local database, computes the IVA and ISR
breakdown of every document and produces the fiscal summary, CSV backups,
spreadsheet reports and printable PDFs.

Every command except the root asks for the access password. Pass it with
--password or ITLEDGER_PASSWORD, or type it when prompted.`,
	Version:           version,
	Annotations:       map[string]string{skipAuth: "true"},
	PersistentPreRunE: authenticate,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Debug().
			Str("version", version).
			Msg("itledger executed")

		fmt.Fprintln(cmd.OutOrStdout(), "Welcome to itledger!")
		fmt.Fprintln(cmd.OutOrStdout(), "Use --help to see available commands and options.")
	},
}

// Execute runs the command line with cfg and exits non-zero on failure.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")

	a := newApp(cfg)
	err := rootCmd.ExecuteContext(withApp(context.Background(), a))
	if closeErr := a.close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to close store")
	}

	if err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().String("password", "", "Access password (default: $ITLEDGER_PASSWORD or prompt)")
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the itledger version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAuth: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "itledger %s\n", version)
	},
}
