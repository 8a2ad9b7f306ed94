// Package grid is the tree-grid selection engine: a task hierarchy with
// expand/collapse state next to a per-date grid of checkboxes. It owns one
// tree, one visibility state and one selection store per rendered widget.
//
// All methods are synchronous and the engine is not safe for concurrent use;
// renderers call ToggleNode/ToggleCell on user gestures and re-query Rows,
// Dates and Axis afterwards.
package grid

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/layout"
	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/selection"
	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMinSpan sets the axis width used when all leaf dates coincide.
func WithMinSpan(d time.Duration) Option {
	return func(e *Engine) {
		e.minSpan = d
	}
}

// Engine ties the hierarchy, its visibility and the selection store together.
type Engine struct {
	tree    *tree.Tree
	vis     *tree.Visibility
	store   *selection.Store
	minSpan time.Duration
}

// New builds the engine for one workflow. Malformed hierarchies fail with
// *tree.CycleOrOrphanError and unparseable dates with
// *selection.InvalidDateError; nothing is returned on failure.
func New(workflowID string, records []model.TaskRecord, opts ...Option) (*Engine, error) {
	defer debug.LogEnterExit("grid.New")()

	t, err := tree.Build(workflowID, records)
	if err != nil {
		return nil, fmt.Errorf("building task tree: %w", err)
	}
	store, err := selection.NewStore(t)
	if err != nil {
		return nil, fmt.Errorf("extracting cells: %w", err)
	}

	e := &Engine{
		tree:    t,
		vis:     tree.NewVisibility(t),
		store:   store,
		minSpan: layout.DefaultMinSpan,
	}
	for _, opt := range opts {
		opt(e)
	}
	debug.Log("grid: %d nodes, %d cells", t.Len(), store.Len())
	return e, nil
}

// WorkflowID returns the workflow the engine was built for.
func (e *Engine) WorkflowID() string {
	return e.tree.WorkflowID()
}

// Tree returns the immutable hierarchy.
func (e *Engine) Tree() *tree.Tree {
	return e.tree
}

// Store returns the selection store owned by this engine.
func (e *Engine) Store() *selection.Store {
	return e.store
}

// Visibility returns the expand/collapse state.
func (e *Engine) Visibility() *tree.Visibility {
	return e.vis
}

// ToggleNode expands or collapses a node. It reports false for leaves.
func (e *Engine) ToggleNode(id string) (bool, error) {
	return e.vis.Toggle(id)
}

// ExpandAll expands every group.
func (e *Engine) ExpandAll() {
	e.vis.ExpandAll()
}

// CollapseAll returns to the initial visible set.
func (e *Engine) CollapseAll() {
	e.vis.CollapseAll()
}

// ExpandToLevel shows nodes down to the given depth.
func (e *Engine) ExpandToLevel(level int) {
	e.vis.ExpandToLevel(level)
}

// ToggleCell flips a cell and cascades the new value to the same-date cells
// of all its descendants. It returns the new checked value.
func (e *Engine) ToggleCell(cellID string) (bool, error) {
	return e.store.Toggle(cellID)
}

// ToggleCellAt toggles the cell of nodeID on date.
func (e *Engine) ToggleCellAt(nodeID string, date time.Time) (bool, error) {
	return e.store.Toggle(selection.CellID(nodeID, date))
}

// SetCellChecked sets the cell of nodeID on date and cascades like a toggle.
func (e *Engine) SetCellChecked(nodeID string, date time.Time, checked bool) error {
	return e.store.SetChecked(selection.CellID(nodeID, date), checked)
}

// SetAllChecked checks or unchecks every cell.
func (e *Engine) SetAllChecked(checked bool) {
	e.store.SetAll(checked)
}

// QueryExcluded returns the unchecked leaf task-instances.
func (e *Engine) QueryExcluded() []model.Exclusion {
	return e.store.Excluded()
}

// Rows returns the visible nodes with their hierarchy positions.
func (e *Engine) Rows() []layout.Row {
	return layout.Rows(e.vis.Visible(), e.vis)
}

// CellView is the render-facing state of one cell.
type CellView struct {
	ID      string
	Date    time.Time
	Kind    selection.Kind
	Checked bool
}

// RowCells returns the cells on a node's row, dates ascending.
func (e *Engine) RowCells(nodeID string) []CellView {
	cells := e.store.CellsForNode(nodeID)
	out := make([]CellView, len(cells))
	for i, c := range cells {
		out[i] = CellView{ID: c.ID(), Date: c.Date(), Kind: c.Kind(), Checked: c.Checked()}
	}
	return out
}

// CellAt returns the view of nodeID's cell on date, if the node has an
// instance that day.
func (e *Engine) CellAt(nodeID string, date time.Time) (CellView, bool) {
	c, ok := e.store.CellAt(nodeID, date)
	if !ok {
		return CellView{}, false
	}
	return CellView{ID: c.ID(), Date: c.Date(), Kind: c.Kind(), Checked: c.Checked()}, true
}

// Dates returns every distinct date with at least one cell, ascending.
func (e *Engine) Dates() []time.Time {
	return e.store.Dates()
}

// Axis maps dates to positions over the span of all leaf task-instances.
// It returns layout.ErrEmptyDateSpan when no leaf has an instance.
func (e *Engine) Axis() (layout.Axis, error) {
	return layout.NewAxis(e.store.LeafDates(), e.minSpan)
}

// Stats summarises the engine state.
type Stats struct {
	Nodes    int `json:"nodes"`
	Visible  int `json:"visible"`
	Cells    int `json:"cells"`
	Excluded int `json:"excluded"`
}

// Stats returns node, cell and exclusion counts.
func (e *Engine) Stats() Stats {
	return Stats{
		Nodes:    e.tree.Len(),
		Visible:  len(e.vis.Visible()),
		Cells:    e.store.Len(),
		Excluded: len(e.store.Excluded()),
	}
}
