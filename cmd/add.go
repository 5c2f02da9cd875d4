// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"

	"github.com/spf13/cobra"
)

type addOptions struct {
	table  string
	drafts []string
}

var addOpts addOptions

var addCmd = &cobra.Command{
	Use:   "add --draft field=value,... [--draft ...]",
	Short: "Add several rows in one batch",
	Long: `The add command queues one draft per --draft flag and creates them in order.
Each draft needs the table's required fields (code and name for the
inventory); missing optional fields get the table defaults.

Values cannot contain commas. Use 'assettrack edit' afterwards for those.`,
	Example: `  assettrack add --draft code=A1001,name=Chair,category=501 --draft code=A1002,name=Desk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return runAdd(cmd.Context(), w, addOpts)
	},
}

func runAdd(ctx context.Context, w *workspace, opts addOptions) error {
	schema, known := w.catalog.Schema(w.table(opts.table))
	s := w.coord.Open(schema)
	q := s.Drafts()

	for n, raw := range opts.drafts {
		fields, err := parseFields(raw)
		if err != nil {
			return err
		}
		id := q.Trailing().ID
		for _, k := range fields.Keys() {
			if known && !schema.HasField(k) {
				return aterrors.Newf(aterrors.Validation, "draft %d: %s has no field %q (fields: %s)",
					n+1, schema.Table, k, strings.Join(schema.Fields(), ", "))
			}
			if _, err := q.Set(id, k, fields[k]); err != nil {
				return err
			}
		}
		if q.Trailing().ID == id {
			return aterrors.New(aterrors.Validation, fmt.Sprintf("draft %d is missing %s",
				n+1, strings.Join(asset.MissingOf(fields, schema.Required), ", ")))
		}
	}

	res, err := w.coord.CommitCreates(ctx, s)
	if err != nil {
		return err
	}
	return printResult(res)
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addOpts.table, "table", "t", "inventory", "Table to add rows to")
	addCmd.Flags().StringArrayVar(&addOpts.drafts, "draft", nil, "field=value,... for one new row (repeatable)")
	_ = addCmd.MarkFlagRequired("draft")
}
