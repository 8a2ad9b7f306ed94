package tree

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/rerungrid/pkg/model"
)

func rec(id, group string, dates ...string) model.TaskRecord {
	r := model.TaskRecord{ID: id, TaskInstances: dates}
	if group != "" {
		r.GroupID = model.GroupRef(group)
	}
	return r
}

// sampleRecords returns a three-level hierarchy:
//
//	[DAG]
//	  etl
//	    extract
//	    transform
//	      clean
//	  report
func sampleRecords() []model.TaskRecord {
	return []model.TaskRecord{
		rec("etl", ""),
		rec("extract", "etl", "2021-01-01"),
		rec("transform", "etl"),
		rec("clean", "transform", "2021-01-02"),
		rec("report", "", "2021-01-03"),
	}
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// TestBuildEmpty verifies an empty record list still yields the synthetic root
func TestBuildEmpty(t *testing.T) {
	tr, err := Build("wf", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tr.Len() != 1 {
		t.Errorf("expected only the root, got %d nodes", tr.Len())
	}
	if tr.Root().ID != model.RootTaskID || !tr.Root().IsRoot() {
		t.Errorf("unexpected root %+v", tr.Root())
	}
	if tr.Root().IsGroup() {
		t.Error("empty root should not be a group")
	}
}

// TestBuildHierarchy verifies parent/child edges, depth and pre-order
func TestBuildHierarchy(t *testing.T) {
	tr, err := Build("wf", sampleRecords())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tr.WorkflowID() != "wf" {
		t.Errorf("expected workflow wf, got %q", tr.WorkflowID())
	}

	wantOrder := []string{model.RootTaskID, "etl", "extract", "transform", "clean", "report"}
	if got := nodeIDs(tr.Nodes()); !slices.Equal(got, wantOrder) {
		t.Errorf("pre-order = %v, want %v", got, wantOrder)
	}
	for i, n := range tr.Nodes() {
		if n.Preorder() != i {
			t.Errorf("node %s preorder = %d, want %d", n.ID, n.Preorder(), i)
		}
	}

	if got := nodeIDs(tr.Root().FullChildren()); !slices.Equal(got, []string{"etl", "report"}) {
		t.Errorf("root children = %v", got)
	}

	clean, ok := tr.Node("clean")
	if !ok {
		t.Fatal("clean not indexed")
	}
	if clean.Depth != 3 {
		t.Errorf("expected clean at depth 3, got %d", clean.Depth)
	}
	if clean.Parent == nil || clean.Parent.ID != "transform" {
		t.Errorf("expected clean under transform, got %v", clean.Parent)
	}
	if clean.TaskID() != "clean" || tr.Root().TaskID() != "" {
		t.Error("unexpected task ids")
	}

	etl, _ := tr.Node("etl")
	if !etl.IsGroup() {
		t.Error("etl should be a group")
	}
	want := []string{"etl", "extract", "transform", "clean"}
	if got := etl.DescendantIDs(); !slices.Equal(got, want) {
		t.Errorf("etl descendants = %v, want %v", got, want)
	}
	if !etl.HasDescendant("clean") || etl.HasDescendant("report") {
		t.Error("HasDescendant mismatch")
	}
}

// TestBuildExplicitRootGroup verifies records may name the root directly
func TestBuildExplicitRootGroup(t *testing.T) {
	tr, err := Build("wf", []model.TaskRecord{rec("a", model.RootTaskID)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, _ := tr.Node("a")
	if a.Parent != tr.Root() {
		t.Error("expected a directly under the root")
	}
}

// TestBuildRejectsMalformed verifies every malformed hierarchy fails with CycleOrOrphanError
func TestBuildRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		records []model.TaskRecord
		reason  Reason
	}{
		{"orphan", []model.TaskRecord{rec("a", "missing")}, ReasonOrphan},
		{"duplicate", []model.TaskRecord{rec("a", ""), rec("a", "")}, ReasonDuplicate},
		{"self group", []model.TaskRecord{rec("a", "a")}, ReasonInvalid},
		{"reserved id", []model.TaskRecord{rec(model.RootTaskID, "")}, ReasonInvalid},
		{"two cycle", []model.TaskRecord{rec("a", "b"), rec("b", "a")}, ReasonCycle},
		{"cycle beside valid", []model.TaskRecord{rec("ok", ""), rec("x", "z"), rec("y", "x"), rec("z", "y")}, ReasonCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Build("wf", tt.records)
			if tr != nil {
				t.Error("expected no tree on failure")
			}
			if !errors.Is(err, ErrCycleOrOrphan) {
				t.Fatalf("expected ErrCycleOrOrphan, got %v", err)
			}
			var coe *CycleOrOrphanError
			if !errors.As(err, &coe) {
				t.Fatalf("expected *CycleOrOrphanError, got %T", err)
			}
			if coe.Reason != tt.reason {
				t.Errorf("reason = %s, want %s (%v)", coe.Reason, tt.reason, err)
			}
		})
	}
}

// TestBuildCyclePath verifies the reported cycle is a closed group chain
func TestBuildCyclePath(t *testing.T) {
	_, err := Build("wf", []model.TaskRecord{rec("x", "z"), rec("y", "x"), rec("z", "y")})
	var coe *CycleOrOrphanError
	if !errors.As(err, &coe) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	want := []string{"x", "z", "y", "x"}
	if !slices.Equal(coe.Cycle, want) {
		t.Errorf("cycle = %v, want %v", coe.Cycle, want)
	}
}

// TestBuildDoesNotAliasInput verifies later edits to the input leave the tree alone
func TestBuildDoesNotAliasInput(t *testing.T) {
	records := sampleRecords()
	tr, err := Build("wf", records)
	if err != nil {
		t.Fatal(err)
	}
	records[0].Label = "changed"
	etl, _ := tr.Node("etl")
	if etl.Label != "etl" {
		t.Errorf("tree label changed with input: %q", etl.Label)
	}
}

// genRecords draws a well-formed hierarchy: every record's group is either the
// root or an earlier record.
func genRecords(t *rapid.T) []model.TaskRecord {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	records := make([]model.TaskRecord, 0, n)
	for i := 0; i < n; i++ {
		parent := rapid.IntRange(-1, i-1).Draw(t, fmt.Sprintf("parent%d", i))
		group := ""
		if parent >= 0 {
			group = fmt.Sprintf("t%d", parent)
		}
		records = append(records, rec(fmt.Sprintf("t%d", i), group))
	}
	return rapid.Permutation(records).Draw(t, "order")
}

// TestBuildTreeIntegrityProperty checks single root and descendant closure on random trees
func TestBuildTreeIntegrityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		tr, err := Build("wf", records)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if tr.Len() != len(records)+1 {
			t.Fatalf("expected %d nodes, got %d", len(records)+1, tr.Len())
		}

		roots := 0
		for _, n := range tr.Nodes() {
			if n.IsRoot() {
				roots++
			}
			var closure []string
			var walk func(*Node)
			walk = func(m *Node) {
				closure = append(closure, m.ID)
				for _, c := range m.FullChildren() {
					walk(c)
				}
			}
			walk(n)
			if !slices.Equal(closure, n.DescendantIDs()) {
				t.Fatalf("node %s descendants %v != closure %v", n.ID, n.DescendantIDs(), closure)
			}
		}
		if roots != 1 {
			t.Fatalf("expected exactly one root, got %d", roots)
		}
	})
}
