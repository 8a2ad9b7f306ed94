package selection

import (
	"slices"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

type datedEntry struct {
	key  string
	date time.Time
}

// Extract builds one checked cell per node per distinct execution date found
// on the node's own record or anywhere below it in the full tree. Cells come
// back in node pre-order, dates ascending within a node. A node with no
// reachable dates has no cells.
func Extract(t *tree.Tree) ([]*Cell, error) {
	defer metrics.Timer(metrics.CellExtract)()

	nodes := t.Nodes()
	reach := make(map[string][]datedEntry, len(nodes))

	// Reverse pre-order visits every child before its parent.
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		seen := make(map[string]bool)
		var dates []datedEntry
		add := func(e datedEntry) {
			if seen[e.key] {
				return
			}
			seen[e.key] = true
			dates = append(dates, e)
		}

		for _, raw := range n.Instances() {
			d, err := ParseDate(raw)
			if err != nil {
				return nil, &InvalidDateError{TaskID: n.TaskID(), Value: raw}
			}
			add(datedEntry{key: DateKey(d), date: d})
		}
		for _, c := range n.FullChildren() {
			for _, e := range reach[c.ID] {
				add(e)
			}
		}
		reach[n.ID] = dates
	}

	var cells []*Cell
	for _, n := range nodes {
		dates := slices.Clone(reach[n.ID])
		slices.SortFunc(dates, func(a, b datedEntry) int {
			return a.date.Compare(b.date)
		})

		kind := Leaf
		if n.IsGroup() {
			kind = Group
		}
		propagation := n.DescendantIDs()
		for _, e := range dates {
			cells = append(cells, &Cell{
				id:          n.ID + "|" + e.key,
				node:        n,
				kind:        kind,
				date:        e.date,
				dateKey:     e.key,
				propagation: propagation,
				checked:     true,
			})
		}
	}

	debug.Log("selection: extracted %d cells for %d nodes", len(cells), len(nodes))
	return cells, nil
}
