// Package ui renders a grid.Engine as a bubbletea program: visible task rows
// on the left, one checkbox column per execution date on the right.
package ui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/export"
	"github.com/vanderheijden86/rerungrid/pkg/grid"
	"github.com/vanderheijden86/rerungrid/pkg/layout"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/watcher"
)

const (
	defaultWidth      = 120
	defaultHeight     = 40
	defaultColumns    = 14
	defaultLabelWidth = 32
	columnWidth       = 6
	chromeLines       = 4 // title, date header, blank, status
)

// FileChangedMsg is sent when the records source changes on disk.
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Options configures a Model.
type Options struct {
	Columns    int    // date columns shown at once
	LabelWidth int    // width of the tree column
	ShowDates  bool   // draw the date header
	ExportDir  string // target of the write key

	// Reload rebuilds the engine after the source changed. Nil disables reload.
	Reload  func() (*grid.Engine, error)
	Watcher *watcher.Watcher

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// Model is the bubbletea model of the grid view.
type Model struct {
	engine *grid.Engine
	opts   Options
	theme  Theme
	keys   KeyMap

	rows   []layout.Row
	dates  []time.Time
	cursor int // row index
	top    int // first rendered row
	col    int // date index
	left   int // first rendered date

	width  int
	height int

	showHelp bool
	help     viewport.Model

	status        string
	statusIsError bool
	lastWritten   string
}

// NewModel creates the grid view for e.
func NewModel(e *grid.Engine, opts Options) Model {
	if opts.Columns <= 0 {
		opts.Columns = defaultColumns
	}
	if opts.LabelWidth <= 0 {
		opts.LabelWidth = defaultLabelWidth
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	m := Model{
		engine: e,
		opts:   opts,
		theme:  DefaultTheme(lipgloss.DefaultRenderer()),
		keys:   DefaultKeyMap(),
		width:  defaultWidth,
		height: defaultHeight,
		help:   viewport.New(defaultWidth-4, defaultHeight-4),
	}
	m.refresh()
	return m
}

// WithTheme replaces the theme.
func (m Model) WithTheme(t Theme) Model {
	m.theme = t
	return m
}

// Engine returns the engine currently shown.
func (m Model) Engine() *grid.Engine {
	return m.engine
}

// Cursor returns the node id and date under the cursor.
func (m Model) Cursor() (string, time.Time) {
	var id string
	var d time.Time
	if m.cursor < len(m.rows) {
		id = m.rows[m.cursor].Node.ID
	}
	if m.col < len(m.dates) {
		d = m.dates[m.col]
	}
	return id, d
}

// Status returns the last status line message.
func (m Model) Status() string {
	return m.status
}

// LastWritten returns the path of the last rerun request written with the
// write key.
func (m Model) LastWritten() string {
	return m.lastWritten
}

// Init starts watching the source when a watcher is configured.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

// Update handles key presses, window resizes and source changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = max(20, msg.Width-4)
		m.help.Height = max(3, msg.Height-4)
		if m.showHelp {
			m.help.SetContent(renderHelp(m.keys, m.help.Width-2))
		}
		m.ensureVisible()
		return m, nil

	case FileChangedMsg:
		m.reload()
		if m.opts.Watcher != nil {
			return m, WatchFileCmd(m.opts.Watcher)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			return m.updateHelp(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help), msg.String() == "esc":
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.statusIsError = false
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.dates)-1 {
			m.col++
		}

	case key.Matches(msg, m.keys.ToggleNode):
		m.toggleNode()
	case key.Matches(msg, m.keys.ToggleCell):
		m.toggleCell()

	case key.Matches(msg, m.keys.ExpandAll):
		m.engine.ExpandAll()
		m.refresh()
		m.status = "expanded all groups"
	case key.Matches(msg, m.keys.CollapseAll):
		id, _ := m.Cursor()
		m.engine.CollapseAll()
		m.refresh()
		m.moveCursorTo(id)
		m.status = "collapsed all groups"
	case key.Matches(msg, m.keys.CheckAll):
		m.engine.SetAllChecked(true)
		m.status = "all task-instances selected"
	case key.Matches(msg, m.keys.UncheckAll):
		m.engine.SetAllChecked(false)
		m.status = "all task-instances excluded"

	case key.Matches(msg, m.keys.Copy):
		m.copyRequest()
	case key.Matches(msg, m.keys.Write):
		m.writeRequest()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.SetContent(renderHelp(m.keys, m.help.Width-2))
		m.help.GotoTop()
	}
	m.ensureVisible()
	return m, nil
}

func (m *Model) toggleNode() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	if !r.IsGroup {
		m.status = fmt.Sprintf("%s has no children", r.Node.Label)
		return
	}
	if _, err := m.engine.ToggleNode(r.Node.ID); err != nil {
		m.setError(err)
		return
	}
	m.refresh()
	m.moveCursorTo(r.Node.ID)
}

func (m *Model) toggleCell() {
	id, d := m.Cursor()
	if id == "" || d.IsZero() {
		return
	}
	if _, ok := m.engine.CellAt(id, d); !ok {
		m.status = fmt.Sprintf("no task-instance for %s on %s", id, d.Format(time.DateOnly))
		return
	}
	checked, err := m.engine.ToggleCellAt(id, d)
	if err != nil {
		m.setError(err)
		return
	}
	verb := "excluded"
	if checked {
		verb = "selected"
	}
	m.status = fmt.Sprintf("%s %s on %s", verb, id, d.Format(time.DateOnly))
}

func (m *Model) request() model.RerunRequest {
	return export.BuildRerunRequest(m.engine.WorkflowID(), m.engine.QueryExcluded(), m.engine.Dates())
}

func (m *Model) copyRequest() {
	var buf bytes.Buffer
	if err := export.EncodeRerunRequest(&buf, m.request()); err != nil {
		m.setError(err)
		return
	}
	if err := m.opts.Clipboard(buf.String()); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.status = fmt.Sprintf("📋 Copied rerun request (%d excluded) to clipboard", len(m.engine.QueryExcluded()))
}

func (m *Model) writeRequest() {
	if m.opts.ExportDir == "" {
		m.setError(fmt.Errorf("no export directory configured"))
		return
	}
	path := filepath.Join(m.opts.ExportDir, export.DefaultRequestName(m.engine.WorkflowID()))
	if err := export.WriteRerunRequest(path, m.request()); err != nil {
		m.setError(err)
		return
	}
	m.lastWritten = path
	m.status = "wrote " + path
}

func (m *Model) reload() {
	if m.opts.Reload == nil {
		return
	}
	e, err := m.opts.Reload()
	if err != nil {
		m.setError(fmt.Errorf("reload failed, keeping previous data: %w", err))
		return
	}
	id, _ := m.Cursor()
	m.engine = e
	m.refresh()
	m.moveCursorTo(id)
	m.status = "source changed, selection reset"
	debug.Log("ui: reloaded engine with %d nodes", e.Tree().Len())
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusIsError = true
}

// refresh re-reads rows and dates from the engine and clamps the cursor.
func (m *Model) refresh() {
	m.rows = m.engine.Rows()
	m.dates = m.engine.Dates()
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	m.col = max(0, min(m.col, len(m.dates)-1))
	m.ensureVisible()
}

func (m *Model) moveCursorTo(id string) {
	for i, r := range m.rows {
		if r.Node.ID == id {
			m.cursor = i
			break
		}
	}
	m.ensureVisible()
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-chromeLines)
}

func (m *Model) visibleColumns() int {
	avail := (m.width - m.opts.LabelWidth - 1) / columnWidth
	return max(1, min(m.opts.Columns, avail))
}

func (m *Model) ensureVisible() {
	h := m.bodyHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+h {
		m.top = m.cursor - h + 1
	}
	m.top = max(0, min(m.top, max(0, len(m.rows)-h)))

	c := m.visibleColumns()
	if m.col < m.left {
		m.left = m.col
	}
	if m.col >= m.left+c {
		m.left = m.col - c + 1
	}
	m.left = max(0, min(m.left, max(0, len(m.dates)-c)))
}

// View renders the grid, or the help overlay when it is open.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if m.showHelp {
		return m.theme.HelpBox.Render(m.help.View())
	}

	var sb strings.Builder
	stats := m.engine.Stats()
	title := fmt.Sprintf("rrg · %s", m.engine.WorkflowID())
	sb.WriteString(m.theme.Header.Render(title))
	sb.WriteString(m.theme.StatusBar.Render(fmt.Sprintf("  %d tasks · %d cells · %d excluded",
		stats.Nodes-1, stats.Cells, stats.Excluded)))
	sb.WriteString("\n")

	cols := m.visibleColumns()
	end := min(len(m.dates), m.left+cols)
	window := m.dates[m.left:end]

	if m.opts.ShowDates {
		var hdr strings.Builder
		hdr.WriteString(strings.Repeat(" ", m.opts.LabelWidth+1))
		for _, d := range window {
			hdr.WriteString(center(d.Format("01-02"), columnWidth))
		}
		sb.WriteString(m.theme.DateHeader.Render(hdr.String()))
	}
	sb.WriteString("\n")

	prefixes := treePrefixes(m.rows)
	last := min(len(m.rows), m.top+m.bodyHeight())
	for i := m.top; i < last; i++ {
		sb.WriteString(m.renderRow(i, prefixes[i], window))
		sb.WriteString("\n")
	}
	for i := last - m.top; i < m.bodyHeight(); i++ {
		sb.WriteString("\n")
	}

	sb.WriteString(m.renderStatus())
	return sb.String()
}

func (m Model) renderRow(i int, prefix string, window []time.Time) string {
	r := m.rows[i]
	labelStyle := m.theme.LeafLabel
	if r.IsGroup {
		labelStyle = m.theme.GroupLabel
	}

	prefixW := lipgloss.Width(prefix)
	label := expandIndicator(r) + " " + r.Node.Label
	label = padRight(truncateRunesHelper(label, m.opts.LabelWidth-prefixW, "…"), m.opts.LabelWidth-prefixW)

	var sb strings.Builder
	sb.WriteString(m.theme.TreeLines.Render(prefix))
	if i == m.cursor {
		sb.WriteString(m.theme.CursorRow.Inherit(labelStyle).Render(label))
	} else {
		sb.WriteString(labelStyle.Render(label))
	}
	sb.WriteString(" ")

	for j, d := range window {
		mark := " "
		style := m.theme.Base
		if cell, ok := m.engine.CellAt(r.Node.ID, d); ok {
			if cell.Checked {
				mark, style = "■", m.theme.CheckedBox
			} else {
				mark, style = "□", m.theme.EmptyBox
			}
		}
		text := center(mark, columnWidth)
		if i == m.cursor && m.left+j == m.col {
			style = m.theme.CursorCell
		}
		sb.WriteString(style.Render(text))
	}
	return sb.String()
}

func (m Model) renderStatus() string {
	if m.status != "" {
		if m.statusIsError {
			return m.theme.StatusErr.Render("✗ " + m.status)
		}
		return m.theme.StatusBar.Render(m.status)
	}

	id, d := m.Cursor()
	parts := []string{id}
	if !d.IsZero() {
		parts = append(parts, d.Format(time.DateOnly))
	}
	if axis, err := m.engine.Axis(); err == nil {
		parts = append(parts, fmt.Sprintf("span %s..%s (%.1fd)",
			axis.Min.Format(time.DateOnly), axis.Max.Format(time.DateOnly), axis.SpanDays()))
		if !d.IsZero() {
			parts = append(parts, fmt.Sprintf("day +%.1f", axis.Days(d)))
		}
	}
	parts = append(parts, "? help")
	return m.theme.StatusBar.Render(strings.Join(parts, " · "))
}
