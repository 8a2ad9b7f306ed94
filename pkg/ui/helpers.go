package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/rerungrid/pkg/layout"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	return runewidth.Truncate(s, maxWidth-suffixWidth, "") + suffix
}

// padRight pads s with spaces to the given visual width.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// center places s in the middle of a field of the given visual width.
func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// treePrefixes computes the branch drawing for each row. Rows must be the
// visible pre-order sequence; depth-0 rows get no prefix.
func treePrefixes(rows []layout.Row) []string {
	out := make([]string, len(rows))
	var lastAt []bool
	for i, r := range rows {
		if r.Depth >= len(lastAt) {
			lastAt = append(lastAt, make([]bool, r.Depth-len(lastAt)+1)...)
		}
		lastAt[r.Depth] = r.Last
		if r.Depth == 0 {
			continue
		}

		var sb strings.Builder
		for d := 1; d < r.Depth; d++ {
			if lastAt[d] {
				sb.WriteString("    ")
			} else {
				sb.WriteString("│   ")
			}
		}
		if r.Last {
			sb.WriteString("└── ")
		} else {
			sb.WriteString("├── ")
		}
		out[i] = sb.String()
	}
	return out
}

// expandIndicator returns the expand/collapse marker for a row.
func expandIndicator(r layout.Row) string {
	if !r.IsGroup {
		return "•"
	}
	if r.Expanded {
		return "▾"
	}
	return "▸"
}
