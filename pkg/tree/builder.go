// Package tree reconstructs the task hierarchy of a workflow from a flat list
// of parent-pointer records and tracks which parts of it are expanded.
package tree

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// Tree is the immutable, fully indexed hierarchy of one workflow.
type Tree struct {
	workflowID string
	root       *Node
	nodes      map[string]*Node
	order      []*Node // full pre-order, root first
}

// Build turns records into a single rooted tree. Records whose group is nil
// hang off a synthetic root with id model.RootTaskID. Sibling order follows
// record order. Any dangling group reference, duplicate id or group cycle
// fails with *CycleOrOrphanError and no tree is returned.
func Build(workflowID string, records []model.TaskRecord) (*Tree, error) {
	defer metrics.Timer(metrics.TreeBuild)()

	recs := slices.Clone(records)
	byID := make(map[string]*model.TaskRecord, len(recs))
	for i := range recs {
		r := &recs[i]
		if err := r.Validate(); err != nil {
			return nil, &CycleOrOrphanError{TaskID: r.ID, GroupID: r.Parent(), Reason: ReasonInvalid, Detail: err.Error()}
		}
		if _, dup := byID[r.ID]; dup {
			return nil, &CycleOrOrphanError{TaskID: r.ID, Reason: ReasonDuplicate}
		}
		byID[r.ID] = r
	}

	// Step 1: resolve every group reference, rewriting top-level records to the root.
	parentOf := make(map[string]string, len(recs))
	childrenOf := make(map[string][]*model.TaskRecord, len(recs))
	for i := range recs {
		r := &recs[i]
		parent := r.Parent()
		if parent == "" {
			parent = model.RootTaskID
		}
		if _, ok := byID[parent]; !ok && parent != model.RootTaskID {
			return nil, &CycleOrOrphanError{TaskID: r.ID, GroupID: parent, Reason: ReasonOrphan}
		}
		parentOf[r.ID] = parent
		childrenOf[parent] = append(childrenOf[parent], r)
	}

	// Step 2: reject cycles before walking anything.
	if err := checkAcyclic(recs, parentOf); err != nil {
		return nil, err
	}

	// Step 3: build and index the tree from the root.
	t := &Tree{
		workflowID: workflowID,
		nodes:      make(map[string]*Node, len(recs)+1),
		order:      make([]*Node, 0, len(recs)+1),
	}
	t.root = t.buildNode(model.RootTaskID, nil, nil, childrenOf)

	if len(t.nodes) != len(recs)+1 {
		for i := range recs {
			if _, ok := t.nodes[recs[i].ID]; !ok {
				return nil, &CycleOrOrphanError{TaskID: recs[i].ID, GroupID: parentOf[recs[i].ID], Reason: ReasonDisconnected}
			}
		}
	}

	debug.Log("tree: built workflow %q with %d nodes", workflowID, len(t.nodes))
	return t, nil
}

// buildNode creates the node for id and its full subtree, recording pre-order
// position and descendant sets on the way back up.
func (t *Tree) buildNode(id string, rec *model.TaskRecord, parent *Node,
	childrenOf map[string][]*model.TaskRecord) *Node {

	node := &Node{
		ID:       id,
		Label:    id,
		Record:   rec,
		Parent:   parent,
		preorder: len(t.order),
	}
	if rec != nil {
		node.Label = rec.DisplayLabel()
	}
	if parent != nil {
		node.Depth = parent.Depth + 1
	}
	t.nodes[id] = node
	t.order = append(t.order, node)

	node.descendants = []string{id}
	for _, child := range childrenOf[id] {
		childNode := t.buildNode(child.ID, child, node, childrenOf)
		node.fullChildren = append(node.fullChildren, childNode)
		node.descendants = append(node.descendants, childNode.descendants...)
	}

	node.descendantOf = make(map[string]struct{}, len(node.descendants))
	for _, d := range node.descendants {
		node.descendantOf[d] = struct{}{}
	}
	return node
}

// checkAcyclic models group links as a directed graph and uses a topological
// sort to find cycles.
func checkAcyclic(recs []model.TaskRecord, parentOf map[string]string) error {
	g := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(recs)+1)
	nodeToID := make(map[int64]string, len(recs)+1)

	add := func(id string) {
		n := g.NewNode()
		g.AddNode(n)
		idToNode[id] = n.ID()
		nodeToID[n.ID()] = id
	}
	add(model.RootTaskID)
	for i := range recs {
		add(recs[i].ID)
	}
	for i := range recs {
		u := idToNode[parentOf[recs[i].ID]]
		v := idToNode[recs[i].ID]
		g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
	}

	_, err := topo.Sort(g)
	if err == nil {
		return nil
	}
	var unorderable topo.Unorderable
	if !errors.As(err, &unorderable) || len(unorderable) == 0 {
		return &CycleOrOrphanError{Reason: ReasonCycle, Detail: err.Error()}
	}
	return cycleError(unorderable[0], nodeToID, parentOf)
}

// cycleError walks the group chain from the smallest id in the component so
// the reported path is deterministic and in child -> group order.
func cycleError(component []graph.Node, nodeToID map[int64]string, parentOf map[string]string) error {
	ids := make([]string, 0, len(component))
	for _, n := range component {
		ids = append(ids, nodeToID[n.ID()])
	}
	slices.Sort(ids)
	start := ids[0]

	path := []string{start}
	for cur := parentOf[start]; cur != start && len(path) <= len(ids); cur = parentOf[cur] {
		path = append(path, cur)
	}
	path = append(path, start)

	return &CycleOrOrphanError{
		TaskID:  start,
		GroupID: parentOf[start],
		Reason:  ReasonCycle,
		Cycle:   path,
	}
}

// WorkflowID returns the workflow the tree was built for.
func (t *Tree) WorkflowID() string {
	return t.workflowID
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Node looks up a node by id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	return len(t.order)
}

// Nodes returns every node in full-tree pre-order, root first.
func (t *Tree) Nodes() []*Node {
	return slices.Clone(t.order)
}
