package tree

import (
	"github.com/vanderheijden86/rerungrid/pkg/debug"
)

// Visibility tracks the expanded/collapsed state of every node of a tree.
// The visible set is the root plus every node reachable through the
// children of expanded nodes.
type Visibility struct {
	tree     *Tree
	expanded map[string]bool
}

// NewVisibility starts from the fully expanded tree and toggles every node
// except the root once, leaving the root expanded, its direct children
// visible and everything below them collapsed.
func NewVisibility(t *Tree) *Visibility {
	v := &Visibility{
		tree:     t,
		expanded: make(map[string]bool, t.Len()),
	}
	for _, n := range t.order {
		v.expanded[n.ID] = true
	}
	for _, n := range t.order {
		if n.IsRoot() {
			continue
		}
		v.flip(n)
	}
	return v
}

// IsExpanded reports whether id is currently expanded. Leaves are never
// reported as expanded.
func (v *Visibility) IsExpanded(id string) bool {
	n, ok := v.tree.nodes[id]
	return ok && n.IsGroup() && v.expanded[id]
}

// Toggle flips a node between Expanded and Collapsed. It reports false for
// leaves, which have nothing to show or hide.
func (v *Visibility) Toggle(id string) (bool, error) {
	n, ok := v.tree.nodes[id]
	if !ok {
		return false, &UnknownNodeError{NodeID: id}
	}
	if !n.IsGroup() {
		return false, nil
	}
	v.flip(n)
	debug.Log("tree: node %q expanded=%v", id, v.expanded[id])
	return true, nil
}

func (v *Visibility) flip(n *Node) {
	if !n.IsGroup() {
		return
	}
	v.expanded[n.ID] = !v.expanded[n.ID]
}

// Children returns the currently visible children of n: its full children
// when expanded, nil when collapsed.
func (v *Visibility) Children(n *Node) []*Node {
	if n == nil || !v.IsExpanded(n.ID) {
		return nil
	}
	return n.FullChildren()
}

// Visible returns the visible nodes in pre-order, root first.
func (v *Visibility) Visible() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		if !v.IsExpanded(n.ID) {
			return
		}
		for _, c := range n.fullChildren {
			walk(c)
		}
	}
	walk(v.tree.root)
	return out
}

// IsVisible reports whether every ancestor of id is expanded.
func (v *Visibility) IsVisible(id string) bool {
	n, ok := v.tree.nodes[id]
	if !ok {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if !v.expanded[p.ID] {
			return false
		}
	}
	return true
}

// ExpandAll expands every group node.
func (v *Visibility) ExpandAll() {
	for _, n := range v.tree.order {
		if n.IsGroup() {
			v.expanded[n.ID] = true
		}
	}
}

// CollapseAll collapses every group node except the root, restoring the
// initial visible set.
func (v *Visibility) CollapseAll() {
	for _, n := range v.tree.order {
		if n.IsGroup() {
			v.expanded[n.ID] = n.IsRoot()
		}
	}
}

// ExpandToLevel expands nodes at depths 0..level-1 and collapses the rest,
// so level 1 shows only the root's children.
func (v *Visibility) ExpandToLevel(level int) {
	if level < 1 {
		level = 1
	}
	for _, n := range v.tree.order {
		if n.IsGroup() {
			v.expanded[n.ID] = n.Depth < level
		}
	}
}
