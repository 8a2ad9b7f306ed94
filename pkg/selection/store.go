// Package selection derives the per-date checkbox cells of a task tree and
// owns their checked state. Toggling a cell cascades the new value to the
// same-date cells of every descendant; it never cascades upward.
package selection

import (
	"fmt"
	"slices"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

// UnknownCellError is returned when a toggle names a cell that does not
// exist. The store is left unmodified.
type UnknownCellError struct {
	CellID string
}

func (e *UnknownCellError) Error() string {
	return fmt.Sprintf("unknown cell %q", e.CellID)
}

// Store maps cell ids to cells. Cells are created once, at construction, and
// are never removed.
type Store struct {
	workflowID string
	cells      map[string]*Cell
	order      []*Cell
	byNode     map[string][]*Cell
}

// NewStore extracts and registers every cell of t.
func NewStore(t *tree.Tree) (*Store, error) {
	cells, err := Extract(t)
	if err != nil {
		return nil, err
	}
	s := &Store{
		workflowID: t.WorkflowID(),
		cells:      make(map[string]*Cell, len(cells)),
		order:      cells,
		byNode:     make(map[string][]*Cell, t.Len()),
	}
	for _, c := range cells {
		s.cells[c.id] = c
		s.byNode[c.node.ID] = append(s.byNode[c.node.ID], c)
	}
	return s, nil
}

// Len returns the number of cells.
func (s *Store) Len() int {
	return len(s.order)
}

// Cell looks up a cell by id.
func (s *Store) Cell(id string) (*Cell, bool) {
	c, ok := s.cells[id]
	return c, ok
}

// CellAt looks up the cell of nodeID on date.
func (s *Store) CellAt(nodeID string, date time.Time) (*Cell, bool) {
	return s.Cell(CellID(nodeID, date))
}

// Cells returns every cell in node pre-order, dates ascending.
func (s *Store) Cells() []*Cell {
	return slices.Clone(s.order)
}

// CellsForNode returns the cells of one node, dates ascending.
func (s *Store) CellsForNode(nodeID string) []*Cell {
	return slices.Clone(s.byNode[nodeID])
}

// Toggle flips the cell's checked flag and writes the new value to the
// same-date cell of every node in its propagation set. Descendants without
// an instance on that date are skipped. It returns the new value.
func (s *Store) Toggle(id string) (bool, error) {
	c, ok := s.cells[id]
	if !ok {
		return false, &UnknownCellError{CellID: id}
	}
	value := !c.checked
	s.propagate(c, value)
	return value, nil
}

// SetChecked sets the cell to checked and propagates like Toggle.
func (s *Store) SetChecked(id string, checked bool) error {
	c, ok := s.cells[id]
	if !ok {
		return &UnknownCellError{CellID: id}
	}
	s.propagate(c, checked)
	return nil
}

// propagate is a single flat pass: the propagation set is already the full
// descendant closure, so members never propagate further.
func (s *Store) propagate(c *Cell, value bool) {
	defer metrics.Timer(metrics.CellPropagate)()

	c.checked = value
	touched := 1
	for _, nodeID := range c.propagation {
		if nodeID == c.node.ID {
			continue
		}
		if sib, ok := s.cells[nodeID+"|"+c.dateKey]; ok {
			sib.checked = value
			touched++
		}
	}
	debug.Log("selection: %s -> %v (%d cells)", c.id, value, touched)
}

// SetAll sets every cell to checked without regard to hierarchy.
func (s *Store) SetAll(checked bool) {
	for _, c := range s.order {
		c.checked = checked
	}
}

// Excluded returns every unchecked Leaf cell as an exclusion triple, in node
// pre-order and date order. Group cells never appear.
func (s *Store) Excluded() []model.Exclusion {
	var out []model.Exclusion
	for _, c := range s.order {
		if c.kind != Leaf || c.checked {
			continue
		}
		out = append(out, model.Exclusion{
			WorkflowID:    s.workflowID,
			TaskID:        c.node.TaskID(),
			ExecutionDate: c.date,
		})
	}
	return out
}

// Dates returns the distinct dates of all cells, ascending.
func (s *Store) Dates() []time.Time {
	return s.dates(func(*Cell) bool { return true })
}

// LeafDates returns the distinct dates of Leaf cells, ascending.
func (s *Store) LeafDates() []time.Time {
	return s.dates(func(c *Cell) bool { return c.kind == Leaf })
}

func (s *Store) dates(keep func(*Cell) bool) []time.Time {
	seen := make(map[string]bool)
	var out []time.Time
	for _, c := range s.order {
		if !keep(c) || seen[c.dateKey] {
			continue
		}
		seen[c.dateKey] = true
		out = append(out, c.date)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}
