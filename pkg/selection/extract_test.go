package selection

import (
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

func rec(id, group string, dates ...string) model.TaskRecord {
	r := model.TaskRecord{ID: id, TaskInstances: dates}
	if group != "" {
		r.GroupID = model.GroupRef(group)
	}
	return r
}

func mustTree(t *testing.T, records ...model.TaskRecord) *tree.Tree {
	t.Helper()
	tr, err := tree.Build("wf", records)
	if err != nil {
		t.Fatalf("tree.Build: %v", err)
	}
	return tr
}

func day(d int) time.Time {
	return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC)
}

// TestParseDatePreservesOffset verifies parsing keeps the written offset
func TestParseDatePreservesOffset(t *testing.T) {
	d, err := ParseDate("2021-01-01T23:30:00+05:00")
	if err != nil {
		t.Fatal(err)
	}
	if _, off := d.Zone(); off != 5*3600 {
		t.Errorf("expected +05:00 offset kept, got %d", off)
	}
	if d.Day() != 1 {
		t.Errorf("expected local day 1, got %d", d.Day())
	}

	for _, s := range []string{"2021-01-01", "2021-01-01T00:00:00", "2021-01-01 00:00:00", "2021-01-01T00:00:00Z"} {
		got, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", s, err)
			continue
		}
		if !got.Equal(day(1)) {
			t.Errorf("ParseDate(%q) = %v", s, got)
		}
	}

	if _, err := ParseDate("yesterday"); err == nil {
		t.Error("expected error for garbage date")
	}
}

// TestDateKeyIgnoresOffset verifies equal instants share a key
func TestDateKeyIgnoresOffset(t *testing.T) {
	a, _ := ParseDate("2021-01-01T05:00:00+05:00")
	b, _ := ParseDate("2021-01-01T00:00:00Z")
	if DateKey(a) != DateKey(b) {
		t.Errorf("keys differ: %s vs %s", DateKey(a), DateKey(b))
	}
	if CellID("x", a) != "x|2021-01-01T00:00:00Z" {
		t.Errorf("unexpected cell id %q", CellID("x", a))
	}
}

// TestExtractCellsPerNode verifies group nodes collect descendant dates
func TestExtractCellsPerNode(t *testing.T) {
	tr := mustTree(t,
		rec("group", ""),
		rec("a", "group", "2021-01-02", "2021-01-01"),
		rec("b", "group", "2021-01-02", "2021-01-03"),
		rec("idle", ""),
	)
	cells, err := Extract(tr)
	if err != nil {
		t.Fatal(err)
	}

	byNode := map[string][]*Cell{}
	for _, c := range cells {
		byNode[c.Node().ID] = append(byNode[c.Node().ID], c)
		if !c.Checked() {
			t.Errorf("cell %s should start checked", c.ID())
		}
	}

	if got := len(byNode["group"]); got != 3 {
		t.Errorf("group should have 3 cells, got %d", got)
	}
	if got := len(byNode[model.RootTaskID]); got != 3 {
		t.Errorf("root should have 3 cells, got %d", got)
	}
	if got := len(byNode["a"]); got != 2 {
		t.Errorf("a should have 2 cells, got %d", got)
	}
	if len(byNode["idle"]) != 0 {
		t.Error("node without dates should have no cells")
	}

	for _, c := range byNode["group"] {
		if c.Kind() != Group {
			t.Errorf("group cell kind = %s", c.Kind())
		}
		if len(c.PropagationSet()) != 3 {
			t.Errorf("group propagation set = %v", c.PropagationSet())
		}
	}
	a := byNode["a"]
	if a[0].Kind() != Leaf || !a[0].Date().Equal(day(1)) || !a[1].Date().Equal(day(2)) {
		t.Errorf("a cells not leaf/date ordered: %v %v", a[0].Date(), a[1].Date())
	}
}

// TestExtractDeduplicatesOffsets verifies one instant written twice is one cell
func TestExtractDeduplicatesOffsets(t *testing.T) {
	tr := mustTree(t, rec("a", "", "2021-01-01T05:00:00+05:00", "2021-01-01T00:00:00Z"))
	cells, err := Extract(tr)
	if err != nil {
		t.Fatal(err)
	}
	var aCells []*Cell
	for _, c := range cells {
		if c.Node().ID == "a" {
			aCells = append(aCells, c)
		}
	}
	if len(aCells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(aCells))
	}
	if _, off := aCells[0].Date().Zone(); off != 5*3600 {
		t.Errorf("expected first-seen offset kept, got %d", off)
	}
}

// TestExtractInvalidDate verifies unparseable instances abort extraction
func TestExtractInvalidDate(t *testing.T) {
	tr := mustTree(t, rec("a", "", "not-a-date"))
	_, err := Extract(tr)
	var ide *InvalidDateError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InvalidDateError, got %v", err)
	}
	if ide.TaskID != "a" || ide.Value != "not-a-date" {
		t.Errorf("unexpected error fields %+v", ide)
	}
}
