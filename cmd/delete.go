// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/snapshot"
	"assettrack/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type deleteOptions struct {
	table    string
	snapshot string
	yes      bool
}

var deleteOpts deleteOptions

var deleteCmd = &cobra.Command{
	Use:   "delete POS... ",
	Short: "Delete several rows in one batch",
	Long: `The delete command removes the rows at the given positions. Rows are deleted
highest position first, so removing one row never shifts a row that is still
waiting to be deleted.

Positions come from 'assettrack list'. Ranges such as 4-7 are accepted.`,
	Example: `  assettrack delete 3 5
  assettrack delete --snapshot 9f2c41d0a7be13e2 --yes 10-14`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runDelete(cmd.Context(), w, deleteOpts, args)
	},
}

func runDelete(ctx context.Context, w *workspace, opts deleteOptions, args []string) error {
	s, err := w.session(ctx, w.table(opts.table), opts.snapshot)
	if err != nil {
		return err
	}
	positions, err := parsePositions(args, s.Snapshot().Len())
	if err != nil {
		return err
	}
	var rows []snapshot.Row
	for _, p := range positions {
		if _, err := s.Toggle(s.Ref(p)); err != nil {
			return err
		}
		row, _ := s.Snapshot().At(p)
		rows = append(rows, row)
	}

	if !opts.yes {
		if !terminal.IsInteractive() {
			return aterrors.New(aterrors.Validation, "refusing to delete without --yes when not attached to a terminal")
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(rowsTable(s.Schema(), rows)).Render()
		ok, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText(fmt.Sprintf("Delete these %d rows from %s?", len(rows), s.Table())).
			Show()
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Nothing deleted.")
			return nil
		}
	}

	res, err := w.coord.CommitDeletes(ctx, s)
	if err != nil {
		return err
	}
	return printResult(res)
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVarP(&deleteOpts.table, "table", "t", "inventory", "Table to delete from")
	deleteCmd.Flags().StringVar(&deleteOpts.snapshot, "snapshot", "", "Refuse to run if the table no longer matches this fingerprint from list")
	deleteCmd.Flags().BoolVarP(&deleteOpts.yes, "yes", "y", false, "Do not ask for confirmation")
}
