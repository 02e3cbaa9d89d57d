// Package report renders a leak detection Report as a terminal table,
// using byte-humanized sizes and severity-banded coloring.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/heapguard/analyzer/internal/leak"
)

// Render writes report as a styled table to w, one row per candidate,
// sorted by severity descending. Setting noColor true disables the
// fatih/color severity coloring.
func Render(w io.Writer, report leak.Report, noColor bool) {
	prevNoColor := color.NoColor
	color.NoColor = noColor
	defer func() { color.NoColor = prevNoColor }()

	summary := report.Summary()
	fmt.Fprintf(w, "Leak report #%d — %d candidate(s): %d high, %d medium, %d low\n",
		report.ID, summary.Total, summary.High, summary.Medium, summary.Low)
	fmt.Fprintf(w, "Total suspect size: %s across %d instances\n\n",
		humanize.Bytes(uint64(summary.TotalSize)), summary.TotalInstances)

	if summary.Total == 0 {
		fmt.Fprintln(w, "No potential leaks detected.")
		return
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Severity", "Type", "Class", "Instances", "Size", "Site"})

	for _, c := range report.Top(0) {
		sev := c.Severity()
		tbl.AppendRow(table.Row{
			severityCell(sev),
			c.Type.String(),
			c.ClassName,
			c.InstanceCount,
			humanize.Bytes(uint64(c.TotalSize)),
			c.AllocationSite,
		})
	}
	tbl.Render()

	fmt.Fprintln(w)
	for _, line := range report.Recommendations() {
		fmt.Fprintln(w, line)
	}
}

func severityCell(severity int) string {
	text := fmt.Sprintf("%d", severity)
	switch {
	case severity >= 70:
		return color.New(color.FgRed, color.Bold).Sprint(text)
	case severity >= 40:
		return color.New(color.FgYellow).Sprint(text)
	default:
		return color.New(color.FgGreen).Sprint(text)
	}
}
