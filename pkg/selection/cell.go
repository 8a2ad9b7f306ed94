package selection

import (
	"slices"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

// Kind distinguishes cells of group nodes from cells of leaf tasks.
type Kind int

const (
	Leaf Kind = iota
	Group
)

func (k Kind) String() string {
	if k == Group {
		return "group"
	}
	return "leaf"
}

// Cell is the selection unit for one node on one execution date.
type Cell struct {
	id          string
	node        *tree.Node
	kind        Kind
	date        time.Time
	dateKey     string
	propagation []string
	checked     bool
}

// ID returns the cell id, see CellID.
func (c *Cell) ID() string { return c.id }

// Node returns the owning node.
func (c *Cell) Node() *tree.Node { return c.node }

// Kind returns Group or Leaf.
func (c *Cell) Kind() Kind { return c.kind }

// Date returns the execution date with its original offset.
func (c *Cell) Date() time.Time { return c.date }

// Checked reports whether the task-instance is included.
func (c *Cell) Checked() bool { return c.checked }

// PropagationSet returns the node ids a toggle of this cell reaches: the
// owning node and all of its descendants in the full tree.
func (c *Cell) PropagationSet() []string { return slices.Clone(c.propagation) }
