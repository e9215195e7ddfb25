// Package ascii renders boxes and aligned tables for terminal output.
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Box builds a box containing the provided lines and returns it as a string.
// Lines are left-aligned with single-space padding on each side. Multi-width
// runes (emoji, CJK, etc.) are accounted for so the borders stay aligned.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	innerWidth := maxWidth + 2
	border := strings.Repeat("─", innerWidth)

	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + PadRight(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Table lays out rows under a header with columns separated by two spaces.
// Cells wider than maxCell display columns are truncated; maxCell <= 0
// disables truncation. The last column is never padded.
func Table(header []string, rows [][]string, maxCell int) string {
	cols := len(header)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}

	all := make([][]string, 0, len(rows)+2)
	all = append(all, header)
	rule := make([]string, len(header))
	all = append(all, rule)
	all = append(all, rows...)

	widths := make([]int, cols)
	cells := make([][]string, len(all))
	for i, row := range all {
		cells[i] = make([]string, cols)
		for j := 0; j < cols && j < len(row); j++ {
			cell := row[j]
			if maxCell > 0 {
				cell = Truncate(cell, maxCell)
			}
			cells[i][j] = cell
			if w := StringWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}
	for j := range rule {
		cells[1][j] = strings.Repeat("-", widths[j])
	}

	var sb strings.Builder
	for _, row := range cells {
		line := make([]string, cols)
		for j, cell := range row {
			if j == cols-1 {
				line[j] = cell
			} else {
				line[j] = PadRight(cell, widths[j])
			}
		}
		sb.WriteString(strings.TrimRight(strings.Join(line, "  "), " ") + "\n")
	}
	return sb.String()
}

// Truncate shortens value so its display width fits within width. An
// ellipsis ("...") is appended when truncation occurs and there is room.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// PadRight fills value with spaces up to the given display width.
func PadRight(value string, width int) string {
	return runewidth.FillRight(value, width)
}

// StringWidth returns the display width of a string, accounting for
// multi-width Unicode characters (emoji, CJK, etc.).
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}
