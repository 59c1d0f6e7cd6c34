package main

import (
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// File statuses shown in the summary.
const (
	statusChanged   = "changed"
	statusUnchanged = "unchanged"
	statusFailed    = "failed"
	statusSkipped   = "skipped"
)

func (r *fileResult) status() string {
	switch {
	case r.Skipped:
		return statusSkipped
	case r.Err != nil:
		return statusFailed
	case r.Changed():
		return statusChanged
	default:
		return statusUnchanged
	}
}

// writeSummary renders one row per file and a totals footer.
func writeSummary(w io.Writer, results []fileResult) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"File", "Size", "Rewrites", "Status"})

	var (
		size     int
		rewrites int
		changed  int
	)

	for i := range results {
		res := &results[i]

		tbl.AppendRow(table.Row{res.Path, byteSize(res.Size), res.Rewrites, res.status()})

		size += res.Size
		rewrites += res.Rewrites

		if res.Changed() {
			changed++
		}
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files, %d changed", len(results), changed),
		byteSize(size),
		rewrites,
		"",
	})

	tbl.Render()
}

func byteSize(n int) string {
	u, err := safecast.Conv[uint64](n)
	if err != nil {
		return "-"
	}

	return humanize.Bytes(u)
}
