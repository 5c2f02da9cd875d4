// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/snapshot"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history CODE",
	Short: "Show the log entries of one asset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runHistory(cmd.Context(), w, args[0])
	},
}

func runHistory(ctx context.Context, w *workspace, code string) error {
	s, err := w.session(ctx, w.catalog.Tables.Log, "")
	if err != nil {
		return err
	}
	entries := asset.History(s.Snapshot().Fields(), code)
	if len(entries) == 0 {
		pterm.Info.Printf("No log entries for %s.\n", code)
		return nil
	}
	rows := make([]snapshot.Row, len(entries))
	for i, f := range entries {
		rows[i] = snapshot.Row{Position: i + 1, Fields: f}
	}
	pterm.DefaultSection.Printf("History of %s (%d entries)", code, len(entries))
	return pterm.DefaultTable.WithHasHeader().WithData(rowsTable(s.Schema(), rows)).Render()
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
