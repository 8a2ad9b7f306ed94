package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/rerungrid/pkg/grid"
	"github.com/vanderheijden86/rerungrid/pkg/layout"
	"github.com/vanderheijden86/rerungrid/pkg/model"
)

func snapshotEngine(t *testing.T) *grid.Engine {
	t.Helper()
	records := []model.TaskRecord{
		{ID: "etl", Label: "ETL"},
		{ID: "extract", GroupID: model.GroupRef("etl"), TaskInstances: []string{"2024-01-01T00:00:00Z", "2024-01-03T00:00:00Z"}},
		{ID: "load", GroupID: model.GroupRef("etl"), TaskInstances: []string{"2024-01-02T00:00:00Z"}},
		{ID: "report", TaskInstances: []string{"2024-01-03T00:00:00Z"}},
	}
	e, err := grid.New("nightly", records)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return e
}

// TestSnapshotSVG verifies the SVG is valid XML with one mark per visible cell.
func TestSnapshotSVG(t *testing.T) {
	e := snapshotEngine(t)
	e.ExpandAll()
	if _, err := e.ToggleCellAt("load", e.Dates()[1]); err != nil {
		t.Fatal(err)
	}

	sl, err := buildSnapshotLayout(SnapshotOptions{Grid: e})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var buf bytes.Buffer
	if err := renderSnapshotSVG(&buf, sl); err != nil {
		t.Fatalf("render: %v", err)
	}
	content := buf.String()

	var doc interface{}
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("SVG is not valid XML: %v", err)
	}

	// root: 3 dates, etl: 3, extract: 2, load: 1, report: 1
	if got := strings.Count(content, `class="cell `); got != 10 {
		t.Errorf("expected 10 cell marks, got %d", got)
	}
	// a leaf toggle does not reach its ancestors
	if got := strings.Count(content, "unchecked"); got != 1 {
		t.Errorf("expected 1 unchecked mark, got %d", got)
	}
	if !strings.Contains(content, "Rerun selection: nightly") {
		t.Error("expected default title")
	}
	if !strings.Contains(content, "excluded: 1") {
		t.Error("expected excluded count in summary")
	}
}

// TestSnapshotLayoutCollapsed verifies only visible rows are drawn.
func TestSnapshotLayoutCollapsed(t *testing.T) {
	e := snapshotEngine(t)
	sl, err := buildSnapshotLayout(SnapshotOptions{Grid: e, Title: "custom"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sl.Rows) != 3 {
		t.Fatalf("expected root, etl, report rows, got %d", len(sl.Rows))
	}
	if sl.Title != "custom" {
		t.Errorf("unexpected title %q", sl.Title)
	}
	for _, r := range sl.Rows {
		for _, c := range r.Cells {
			if c.X < sl.PlotX || c.X > sl.PlotX+sl.PlotW {
				t.Errorf("cell outside plot: %v", c.X)
			}
		}
	}
	if sl.Rows[0].Cells[0].X != sl.PlotX {
		t.Errorf("earliest date should sit at the plot origin")
	}
}

func TestSaveSnapshotFiles(t *testing.T) {
	e := snapshotEngine(t)
	dir := t.TempDir()

	for _, name := range []string{"grid.svg", "grid.png"} {
		path := filepath.Join(dir, name)
		if err := SaveSnapshot(SnapshotOptions{Path: path, Grid: e}); err != nil {
			t.Fatalf("SaveSnapshot(%s): %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	noExt := filepath.Join(dir, "plain")
	if err := SaveSnapshot(SnapshotOptions{Path: noExt, Grid: e}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(noExt + ".svg"); err != nil {
		t.Errorf("expected .svg appended: %v", err)
	}
}

func TestSaveSnapshotErrors(t *testing.T) {
	e := snapshotEngine(t)
	if err := SaveSnapshot(SnapshotOptions{Path: "x.svg"}); err == nil {
		t.Error("expected error without grid")
	}
	if err := SaveSnapshot(SnapshotOptions{Path: "x.gif", Format: "gif", Grid: e}); err == nil {
		t.Error("expected unsupported format error")
	}

	empty, err := grid.New("empty", []model.TaskRecord{{ID: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	err = SaveSnapshot(SnapshotOptions{Path: filepath.Join(t.TempDir(), "e.svg"), Grid: empty})
	if !errors.Is(err, layout.ErrEmptyDateSpan) {
		t.Errorf("expected ErrEmptyDateSpan, got %v", err)
	}
}
