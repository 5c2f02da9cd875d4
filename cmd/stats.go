// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"assettrack/cli/internal/asset"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inventory totals by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runStats(cmd.Context(), w)
	},
}

func runStats(ctx context.Context, w *workspace) error {
	inv, err := w.session(ctx, w.catalog.Tables.Inventory, "")
	if err != nil {
		return err
	}
	pending, err := w.session(ctx, w.catalog.Tables.Pending, "")
	if err != nil {
		return err
	}
	sum := asset.Summarize(inv.Snapshot().Fields(), pending.Snapshot().Fields())

	pterm.DefaultSection.Println("Inventory")
	pterm.Printf("Total assets: %d\nPending verification: %d\n\n", sum.Total, sum.Pending)

	bars := pterm.Bars{}
	for _, c := range sum.ByStatus {
		bars = append(bars, pterm.Bar{Label: c.Status, Value: c.Count})
	}
	if sum.Other > 0 {
		bars = append(bars, pterm.Bar{Label: "other", Value: sum.Other})
	}
	if sum.Total == 0 {
		pterm.Info.Println("No assets yet.")
		return nil
	}
	if err := pterm.DefaultBarChart.WithHorizontal().WithBars(bars).WithShowValue().Render(); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
