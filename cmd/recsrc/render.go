package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"recsrc/pkg/execution"
	"recsrc/pkg/executor"
	"recsrc/pkg/types"
)

var (
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	nullStyle   = lipgloss.NewStyle().Faint(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// renderTree draws an operator tree with box-drawing connectors.
func renderTree(d execution.Description) string {
	var b strings.Builder
	writeNode(&b, d, "", "")
	return b.String()
}

func writeNode(b *strings.Builder, d execution.Description, prefix, connector string) {
	b.WriteString(prefix + connector + kindStyle.Render(d.Kind))
	if d.Detail != "" {
		b.WriteString(" " + detailStyle.Render(d.Detail))
	}
	b.WriteString("\n")

	childPrefix := prefix
	switch connector {
	case "├─ ":
		childPrefix += "│  "
	case "└─ ":
		childPrefix += "   "
	}

	for i, child := range d.Children {
		next := "├─ "
		if i == len(d.Children)-1 {
			next = "└─ "
		}
		writeNode(b, child, childPrefix, next)
	}
}

// renderResult prints rows as aligned columns followed by a summary line.
func renderResult(res *executor.Result) string {
	cells := make([][]string, len(res.Rows))
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len(c)
	}

	for r, row := range res.Rows {
		var fields []types.Field
		for _, t := range row {
			if t == nil {
				continue
			}
			fields = append(fields, t.Fields()...)
		}
		cells[r] = make([]string, len(fields))
		for i, f := range fields {
			cells[r][i] = types.FieldString(f)
			if i < len(widths) && len(cells[r][i]) > widths[i] {
				widths[i] = len(cells[r][i])
			}
		}
	}

	var b strings.Builder
	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = headerStyle.Render(pad(c, widths[i]))
	}
	b.WriteString(strings.Join(header, "  ") + "\n")

	for _, row := range cells {
		line := make([]string, len(row))
		for i, cell := range row {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			if cell == "NULL" {
				line[i] = nullStyle.Render(pad(cell, w))
				continue
			}
			line[i] = pad(cell, w)
		}
		b.WriteString(strings.TrimRight(strings.Join(line, "  "), " ") + "\n")
	}

	b.WriteString(footerStyle.Render(fmt.Sprintf("(%d rows, %s)", len(res.Rows), res.Elapsed.Round(time.Microsecond))) + "\n")
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
