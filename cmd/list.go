// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/snapshot"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type listOptions struct {
	table    string
	search   string
	filters  []string
	sort     string
	desc     bool
	page     int
	pageSize int
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show rows with their positions",
	Long: `The list command fetches a table and shows one page of it. The # column is
the row's position, which edit, delete and approve take as arguments.

The snapshot fingerprint printed below the table identifies exactly what you
saw. Pass it to a later command with --snapshot and that command refuses to
run if the table changed in the meantime.`,
	Example: `  assettrack list --search chair
  assettrack list --table pending --filter status=ใช้งานได้
  assettrack list --sort name --page 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runList(cmd.Context(), w, listOpts)
	},
}

func runList(ctx context.Context, w *workspace, opts listOptions) error {
	table := w.table(opts.table)
	s, err := w.session(ctx, table, "")
	if err != nil {
		return err
	}
	filters, err := parseFilters(opts.filters)
	if err != nil {
		return err
	}
	pageSize := opts.pageSize
	if pageSize == 0 {
		pageSize = w.cfg.PageSize
	}
	page := s.View(snapshot.Query{
		Search:    opts.search,
		Filters:   filters,
		SortField: opts.sort,
		Desc:      opts.desc,
		Page:      opts.page,
		PageSize:  pageSize,
	})

	snap := s.Snapshot()
	if len(page.Rows) == 0 {
		pterm.Info.Printf("No rows in %s match.\n", table)
	} else {
		if err := pterm.DefaultTable.WithHasHeader().WithData(rowsTable(s.Schema(), page.Rows)).Render(); err != nil {
			return err
		}
	}
	pterm.Println(pterm.FgGray.Sprintf("Page %d/%d · %d of %d rows · snapshot %s",
		page.Page, page.Pages, page.Matched, snap.Len(), snap.Fingerprint()))
	return nil
}

// parseFilters turns field=value flags into a filter map.
func parseFilters(in []string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for _, f := range in {
		k, v, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, aterrors.New(aterrors.Validation, fmt.Sprintf("filter %q must look like field=value", f))
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listOpts.table, "table", "t", "inventory", "Table: inventory, pending, log, users or a sheet name")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "", "Case-insensitive text search")
	listCmd.Flags().StringArrayVar(&listOpts.filters, "filter", nil, "Exact match field=value (repeatable)")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", "", "Sort by field (default: position)")
	listCmd.Flags().BoolVar(&listOpts.desc, "desc", false, "Sort descending")
	listCmd.Flags().IntVarP(&listOpts.page, "page", "p", 1, "Page number")
	listCmd.Flags().IntVar(&listOpts.pageSize, "page-size", 0, "Rows per page (default from config, -1 for all)")
}
