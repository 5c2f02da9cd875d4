// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/coordinator"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/logging"
	"assettrack/cli/internal/snapshot"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// startInlineSpinner starts a simple inline spinner animation on a single
// line and returns a function that stops it and clears the line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// progressView renders batch progress in a pterm area while a batch runs.
type progressView struct {
	mu   sync.Mutex
	area *pterm.AreaPrinter
}

func (v *progressView) update(st coordinator.ProgressState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.area == nil {
		if st.Total == 0 || st.Finished() {
			return
		}
		cursor.Hide()
		area, err := pterm.DefaultArea.WithRemoveWhenDone(true).Start()
		if err != nil {
			cursor.Show()
			return
		}
		v.area = area
	}
	v.area.Update(progressLine(st))
	if st.Finished() {
		v.stopLocked()
	}
}

func (v *progressView) stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

func (v *progressView) stopLocked() {
	if v.area == nil {
		return
	}
	_ = v.area.Stop()
	v.area = nil
	cursor.Show()
}

var opVerbs = map[coordinator.Op]string{
	coordinator.OpUpdate: "Updating",
	coordinator.OpCreate: "Adding",
	coordinator.OpDelete: "Deleting",
	coordinator.OpMove:   "Approving",
}

func progressLine(st coordinator.ProgressState) string {
	const width = 24
	finished := st.Total - st.Remaining()
	filled := 0
	if st.Total > 0 {
		filled = finished * width / st.Total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	line := fmt.Sprintf("%s %s  %s  %d/%d", opVerbs[st.Op], st.Table, bar, finished, st.Total)
	if st.Failed > 0 {
		line += pterm.FgRed.Sprintf("  %d failed", st.Failed)
	}
	if finished > 0 {
		line += pterm.FgGray.Sprint("  last: " + st.Last.Target())
	}
	return line
}

var kindHints = map[aterrors.Kind]string{
	aterrors.TransportFailure:   "the store may or may not have applied these; check with 'assettrack list' before retrying",
	aterrors.RemoteRejection:    "the store refused these items",
	aterrors.StalePosition:      "the table changed; list it again and re-select",
	aterrors.Validation:         "fill in the missing fields and try again",
	aterrors.MoveSourceRetained: "the row now exists in both tables; delete the pending copy by hand",
	aterrors.Cancelled:          "not sent; run the command again for these rows",
}

// printResult prints the per-item summary of a batch and returns the batch
// error, if any.
func printResult(res coordinator.Result) error {
	total := len(res.Outcomes)
	ok := res.Succeeded()
	failed := res.Failed()

	verb := strings.ToUpper(string(res.Op[:1])) + string(res.Op[1:])
	var title string
	switch {
	case len(failed) == 0:
		title = pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprintf("%s completed", verb)
	case ok == 0:
		title = pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprintf("%s failed", verb)
	default:
		title = pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprintf("%s partly applied", verb)
	}
	details := fmt.Sprintf("Table: %s\nApplied: %d of %d", res.Table, ok, total)
	if res.Snapshot != nil {
		details += fmt.Sprintf("\nSnapshot: %s (%d rows)", res.Snapshot.Fingerprint(), res.Snapshot.Len())
	}
	pterm.Println(pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(details))
	logging.Debugf("batch %s: %d/%d applied", res.BatchID, ok, total)

	if len(failed) > 0 {
		data := pterm.TableData{{"Item", "Kind", "Reason"}}
		kinds := map[aterrors.Kind]bool{}
		for _, o := range failed {
			data = append(data, []string{o.Target(), string(o.Kind()), logging.Mask(o.Err.Error())})
			kinds[o.Kind()] = true
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		var ks []string
		for k := range kinds {
			ks = append(ks, string(k))
		}
		sort.Strings(ks)
		for _, k := range ks {
			if hint, ok := kindHints[aterrors.Kind(k)]; ok {
				pterm.Info.Printf("%s: %s\n", k, hint)
			}
		}
	}
	if res.RefreshErr != nil {
		pterm.Warning.Println("The table could not be re-read after the batch; positions shown earlier are no longer valid.")
	}
	return res.Err()
}

// columnsFor returns the fields to display for rows of schema. Tables without
// a known layout show every field present.
func columnsFor(schema asset.Schema, rows []snapshot.Row) []string {
	if len(schema.Columns) > 0 {
		return schema.Fields()
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		for _, k := range r.Fields.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// rowsTable builds table data with a leading position column.
func rowsTable(schema asset.Schema, rows []snapshot.Row) pterm.TableData {
	cols := columnsFor(schema, rows)
	header := append([]string{"#"}, cols...)
	data := pterm.TableData{header}
	for _, r := range rows {
		line := []string{strconv.Itoa(r.Position)}
		for _, c := range cols {
			line = append(line, formatCell(c, r.Fields[c]))
		}
		data = append(data, line)
	}
	return data
}

func formatCell(field, v string) string {
	switch field {
	case "date":
		return asset.FormatDate(v)
	case "time":
		return asset.FormatTime(v)
	case "pass":
		if v == "" {
			return ""
		}
		return "***"
	case "status":
		switch asset.ClassifyStatus(v) {
		case asset.ClassOK:
			return pterm.FgGreen.Sprint(v)
		case asset.ClassBroken:
			return pterm.FgRed.Sprint(v)
		case asset.ClassRepair:
			return pterm.FgYellow.Sprint(v)
		}
	}
	return v
}
