// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"sort"

	"assettrack/cli/internal/snapshot"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type editOptions struct {
	table    string
	sets     []string
	snapshot string
	dryRun   bool
}

var editOpts editOptions

var editCmd = &cobra.Command{
	Use:   "edit --set POS:field=value [--set ...]",
	Short: "Change fields of several rows in one batch",
	Long: `The edit command stages field changes for one or more rows and sends one
update per row, lowest position first. Fields you do not set keep the values
the row had when it was read.

Every row is sent even if an earlier one fails; the summary lists the rows
the store did not accept.`,
	Example: `  assettrack edit --set 3:status=ชำรุด --set 5:status=ชำรุด
  assettrack edit --snapshot 9f2c41d0a7be13e2 --set 12:name="Desk, oak"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runEdit(cmd.Context(), w, editOpts)
	},
}

func runEdit(ctx context.Context, w *workspace, opts editOptions) error {
	var edits []assignment
	for _, s := range opts.sets {
		a, err := parseAssignment(s)
		if err != nil {
			return err
		}
		edits = append(edits, a)
	}

	s, err := w.session(ctx, w.table(opts.table), opts.snapshot)
	if err != nil {
		return err
	}
	var positions []int
	seen := map[int]bool{}
	for _, a := range edits {
		if !seen[a.position] {
			seen[a.position] = true
			positions = append(positions, a.position)
		}
	}
	sort.Ints(positions)
	if err := s.BeginEdit(positions...); err != nil {
		return err
	}
	for _, a := range edits {
		if err := s.SetField(s.Ref(a.position), a.field, a.value); err != nil {
			return err
		}
	}

	if opts.dryRun {
		var rows []snapshot.Row
		for _, p := range s.Edited() {
			merged, _ := s.Merged(p)
			rows = append(rows, snapshot.Row{Position: p, Fields: merged})
		}
		pterm.Info.Println("Dry run: these rows would be sent")
		return pterm.DefaultTable.WithHasHeader().WithData(rowsTable(s.Schema(), rows)).Render()
	}

	res, err := w.coord.CommitEdits(ctx, s)
	if err != nil {
		return err
	}
	return printResult(res)
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVarP(&editOpts.table, "table", "t", "inventory", "Table to edit")
	editCmd.Flags().StringArrayVar(&editOpts.sets, "set", nil, "POS:field=value (repeatable)")
	editCmd.Flags().StringVar(&editOpts.snapshot, "snapshot", "", "Refuse to run if the table no longer matches this fingerprint from list")
	editCmd.Flags().BoolVar(&editOpts.dryRun, "dry-run", false, "Show the rows that would be sent without sending them")
	_ = editCmd.MarkFlagRequired("set")
}
