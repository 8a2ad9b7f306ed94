package tree

import (
	"slices"

	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// Node is one entry of the task hierarchy. Structural fields are fixed when
// the tree is built; which children are currently shown lives in Visibility.
type Node struct {
	ID     string
	Label  string
	Record *model.TaskRecord // nil for the synthetic root
	Parent *Node             // nil for the root
	Depth  int               // 0 = root

	preorder     int
	fullChildren []*Node
	descendants  []string // self first, then descendants in pre-order
	descendantOf map[string]struct{}
}

// IsRoot reports whether n is the synthetic workflow root.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// IsGroup reports whether n has at least one child in the full tree.
func (n *Node) IsGroup() bool {
	return len(n.fullChildren) > 0
}

// FullChildren returns every direct child regardless of collapse state.
func (n *Node) FullChildren() []*Node {
	return slices.Clone(n.fullChildren)
}

// DescendantIDs returns the ids of n and all of its descendants.
func (n *Node) DescendantIDs() []string {
	return slices.Clone(n.descendants)
}

// HasDescendant reports whether id is n or below n.
func (n *Node) HasDescendant(id string) bool {
	_, ok := n.descendantOf[id]
	return ok
}

// Preorder is the node's position in a pre-order walk of the full tree.
func (n *Node) Preorder() int {
	return n.preorder
}

// Instances returns the raw execution dates of the node's own record.
func (n *Node) Instances() []string {
	if n.Record == nil {
		return nil
	}
	return n.Record.TaskInstances
}

// TaskID is the original task id; empty for the root.
func (n *Node) TaskID() string {
	if n.Record == nil {
		return ""
	}
	return n.Record.ID
}
