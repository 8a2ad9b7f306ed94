package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile, computed once at
// package init.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme carries the colors and pre-built styles of the grid view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	Checked   lipgloss.AdaptiveColor
	Unchecked lipgloss.AdaptiveColor
	Group     lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base       lipgloss.Style
	Header     lipgloss.Style
	DateHeader lipgloss.Style
	TreeLines  lipgloss.Style
	GroupLabel lipgloss.Style
	LeafLabel  lipgloss.Style
	CursorRow  lipgloss.Style
	CursorCell lipgloss.Style
	CheckedBox lipgloss.Style
	EmptyBox   lipgloss.Style
	StatusBar  lipgloss.Style
	StatusErr  lipgloss.Style
	HelpBox    lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Checked:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Unchecked: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Group:     lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Error:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.DateHeader = r.NewStyle().Foreground(t.Secondary).Bold(true)
	t.TreeLines = r.NewStyle().Foreground(t.Muted)
	t.GroupLabel = r.NewStyle().Foreground(t.Group).Bold(true)
	t.LeafLabel = t.Base
	t.CursorRow = r.NewStyle().Background(t.Highlight)
	t.CursorCell = r.NewStyle().Reverse(true).Bold(true).Foreground(ThemeFg("#F1FA8C"))
	t.CheckedBox = r.NewStyle().Foreground(t.Checked)
	t.EmptyBox = r.NewStyle().Foreground(t.Unchecked).Bold(true)
	t.StatusBar = r.NewStyle().Foreground(t.Subtext)
	t.StatusErr = r.NewStyle().Foreground(t.Error).Bold(true)
	t.HelpBox = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
