package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpIntro = `# Rerun selection

Rows are tasks and task groups; columns are execution dates. A filled box
is a task-instance that will be rerun, an empty box one that is excluded.
Toggling a group cell applies the same value to every task-instance of that
group on that date, including collapsed children.

## Keys

`

// helpMarkdown renders the key map as a markdown table.
func helpMarkdown(keys KeyMap) string {
	var sb strings.Builder
	sb.WriteString(helpIntro)
	sb.WriteString("| Key | Action |\n|---|---|\n")
	for _, b := range keys.Bindings() {
		h := b.Help()
		fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	return sb.String()
}

// renderHelp renders the help text for the given width, falling
// back to the raw markdown when glamour fails.
func renderHelp(keys KeyMap, width int) string {
	md := helpMarkdown(keys)
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n ")
}
