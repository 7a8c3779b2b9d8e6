package stats

import (
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column is one table column: its widest cell and whether it holds numbers.
type column struct {
	width   int
	numeric bool
}

// formatTable lays out entry rows under headers. Columns listed in numeric are
// right-aligned; the last column carries no trailing padding.
func formatTable(headers []string, rows [][]string, numeric ...int) []string {
	cols := layoutColumns(headers, rows, numeric)
	if len(cols) == 0 {
		return nil
	}
	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, renderRow(headers, cols))
	}
	for _, row := range rows {
		lines = append(lines, renderRow(row, cols))
	}
	return lines
}

func layoutColumns(headers []string, rows [][]string, numeric []int) []column {
	n := len(headers)
	for _, row := range rows {
		n = max(n, len(row))
	}
	cols := make([]column, n)
	for i := range cols {
		cols[i].numeric = slices.Contains(numeric, i)
	}
	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			cols[i].width = max(cols[i].width, runewidth.StringWidth(cell))
		}
	}
	return cols
}

func renderRow(row []string, cols []column) string {
	cells := make([]string, len(cols))
	for i, col := range cols {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		switch {
		case col.numeric:
			cell = runewidth.FillLeft(cell, col.width)
		case i < len(cols)-1:
			cell = runewidth.FillRight(cell, col.width)
		}
		cells[i] = cell
	}
	return strings.Join(cells, " ")
}

// fitLines truncates each line to width display cells. Non-positive width leaves lines untouched.
func fitLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = runewidth.Truncate(line, width, "…")
	}
	return out
}
