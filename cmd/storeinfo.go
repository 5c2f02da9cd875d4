// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"

	"assettrack/cli/internal/backend"
	"assettrack/cli/internal/config"
	"assettrack/cli/internal/dsn"
	"assettrack/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// storeinfoCmd shows the active endpoint with credentials masked, without
// contacting the store.
var storeinfoCmd = &cobra.Command{
	Use:   "storeinfo",
	Short: "Show the current row store endpoint",
	Long: `The storeinfo command displays the row store endpoint in use and where it
came from (--store flag, ASSETTRACK_STORE, OS keychain or config file).
Passwords, keys and script deployment ids are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			logging.Debugf("config: %v (using defaults)", err)
		}
		endpoint, source, err := config.ResolveEndpoint(storeFlag, keychainEndpoint, cfg)
		if errors.Is(err, config.ErrNoEndpoint) {
			pterm.Println("⚠️  No row store configured")
			pterm.Println("   Please run: assettrack connect")
			return nil
		}
		if err != nil {
			return err
		}

		info, err := dsn.ParseInfo(endpoint)
		if err != nil {
			pterm.Println("❌ The configured endpoint is not valid")
			return err
		}

		pterm.Printf("Using endpoint from %s\n\n", source)
		body := fmt.Sprintf("%s\n%s", logging.Mask(endpoint), pterm.FgGray.Sprint(backend.Describe(info)))
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Row Store")).
			WithPadding(1).
			Println(body)
		pterm.Println()
		t := cfg.Tables
		pterm.Printf("Tables: inventory=%s pending=%s log=%s users=%s\n", t.Inventory, t.Pending, t.Log, t.Users)
		pterm.Println("To change the store, run: assettrack connect")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeinfoCmd)
}
