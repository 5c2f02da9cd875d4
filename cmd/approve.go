// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"slices"
	"strings"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/coordinator"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/snapshot"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type approveOptions struct {
	location string
	status   string
	note     string
	snapshot string
	all      bool
}

var approveOpts approveOptions

var approveCmd = &cobra.Command{
	Use:   "approve [POS...]",
	Short: "Move pending rows to the log",
	Long: `The approve command verifies pending items: each selected row of the pending
table is written to the log with the given location and status, then removed
from the pending table.

The log row is created first. The pending row is only deleted after the log
accepted it; if that delete fails the item is reported as
move_source_retained and the row exists in both tables until you delete the
pending copy.`,
	Example: `  assettrack approve 7 --location 501 --status ใช้งานได้
  assettrack approve --all --location 402 --status ชำรุด --note "screen cracked"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runApprove(cmd.Context(), w, approveOpts, args)
	},
}

func runApprove(ctx context.Context, w *workspace, opts approveOptions, args []string) error {
	src, err := w.session(ctx, w.catalog.Tables.Pending, opts.snapshot)
	if err != nil {
		return err
	}
	if opts.all {
		if err := src.SelectAll(src.View(snapshot.Query{})); err != nil {
			return err
		}
	} else {
		positions, err := parsePositions(args, src.Snapshot().Len())
		if err != nil {
			return err
		}
		for _, p := range positions {
			if _, err := src.Toggle(src.Ref(p)); err != nil {
				return err
			}
		}
	}

	if loc := strings.TrimSpace(opts.location); loc != "" && !slices.Contains(asset.Locations, loc) {
		pterm.Warning.Printf("%q is not one of the usual locations (%s)\n", loc, strings.Join(asset.Locations, ", "))
	}
	dest := rowstore.Fields{"location": opts.location, "status": opts.status}
	if opts.note != "" {
		dest["note"] = opts.note
	}

	logSchema, _ := w.catalog.Schema(w.catalog.Tables.Log)
	dst := w.coord.Open(logSchema)
	res, err := w.coord.ApproveMoves(ctx, src, dst, coordinator.MovesFromSelection(src, dest))
	if err != nil {
		return err
	}
	return printResult(res)
}

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVar(&approveOpts.location, "location", "", "Where the item was found (required)")
	approveCmd.Flags().StringVar(&approveOpts.status, "status", "", "Condition of the item (required)")
	approveCmd.Flags().StringVar(&approveOpts.note, "note", "", "Free-text note for the log")
	approveCmd.Flags().StringVar(&approveOpts.snapshot, "snapshot", "", "Refuse to run if the pending table no longer matches this fingerprint from list")
	approveCmd.Flags().BoolVar(&approveOpts.all, "all", false, "Approve every pending row")
}
