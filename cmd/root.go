// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for assettrack. Each
// command lives in its own file and registers itself on rootCmd in init.
// Commands that change the store stage their input in a coordinator session
// and print the per-item outcome of the batch.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"assettrack/cli/internal/config"
	"assettrack/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	verbose     bool
	storeFlag   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assettrack",
	Short: "Bulk edit, add, delete and approve assets in a row store",
	Long: `assettrack manages an asset inventory kept in a spreadsheet-like row store:
the script web app behind the sheet, PostgreSQL, a local SQLite file or a
row store server started with 'assettrack serve'.

Rows are addressed by position. Positions shown by 'list' are only valid
until the next change; pass --snapshot to refuse a change when the table
moved in between.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetVerbose(true)
		}
		if logging.Verbose() {
			pterm.EnableDebugMessages()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("assettrack %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Interrupts cancel the running batch;
// items already sent stay applied.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(logging.Mask(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Row store endpoint (overrides "+config.EnvStore+", keychain and config)")
}
