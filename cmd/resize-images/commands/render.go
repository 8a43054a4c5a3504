package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/photoblog/resize-images/pkg/pipeline"
)

// newTable returns a rounded table writer with header as its first row.
func newTable(header ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	tw.AppendHeader(row)
	return tw
}

// rightAlign right-aligns the given 1-based columns; headers stay left.
func rightAlign(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		configs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printSummary writes the end-of-run tally: a table on a terminal, plain
// lines otherwise.
func printSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintln(w)
	if isTerminal(w) {
		fmt.Fprintln(w, renderSummaryTable(s))
		return
	}
	fmt.Fprint(w, renderSummaryLines(s))
}

type tally struct {
	label string
	count int
}

func summaryTallies(s pipeline.Summary) []tally {
	return []tally{
		{"Processed", s.Processed},
		{"Succeeded", s.Succeeded},
		{"Failed", s.Failed},
		{"Resized", s.Resized},
		{"Copied", s.Copied},
		{"Sources deleted", s.Retired},
	}
}

func renderSummaryTable(s pipeline.Summary) string {
	tw := newTable("Result", "Count")
	for _, t := range summaryTallies(s) {
		tw.AppendRow(table.Row{t.label, t.count})
	}
	rightAlign(tw, 2)
	return tw.Render()
}

func renderSummaryLines(s pipeline.Summary) string {
	var b strings.Builder
	b.WriteString("📈 Processing complete:\n")
	for _, t := range summaryTallies(s) {
		fmt.Fprintf(&b, "  %s: %d\n", t.label, t.count)
	}
	return b.String()
}
