package layout

import (
	"errors"
	"testing"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

func day(d int) time.Time {
	return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC)
}

// TestNewAxisMinMax verifies min and max are found regardless of order
func TestNewAxisMinMax(t *testing.T) {
	a, err := NewAxis([]time.Time{day(3), day(1), day(5), day(2)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Min.Equal(day(1)) || !a.Max.Equal(day(5)) {
		t.Errorf("axis = %v..%v", a.Min, a.Max)
	}
	if a.SpanDays() != 4 {
		t.Errorf("span = %v days, want 4", a.SpanDays())
	}
	if got := a.Days(day(3)); got != 2 {
		t.Errorf("Days(3) = %v", got)
	}
	if got := a.Position(day(3), 100); got != 50 {
		t.Errorf("Position(3) = %v, want 50", got)
	}
	if got := a.Column(day(5), 5); got != 4 {
		t.Errorf("Column(5) = %d, want 4", got)
	}
	if got := a.Column(day(9), 5); got != 4 {
		t.Errorf("Column clamps high, got %d", got)
	}
	if got := a.Column(day(1), 1); got != 0 {
		t.Errorf("single column = %d", got)
	}
}

// TestNewAxisSingleDate verifies a one-date axis gets the minimum span
func TestNewAxisSingleDate(t *testing.T) {
	a, err := NewAxis([]time.Time{day(1), day(1)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.Span() != DefaultMinSpan {
		t.Errorf("span = %v, want %v", a.Span(), DefaultMinSpan)
	}
	if got := a.Fraction(day(1)); got != 0 {
		t.Errorf("Fraction = %v", got)
	}

	b, _ := NewAxis([]time.Time{day(1)}, 48*time.Hour)
	if b.SpanDays() != 2 {
		t.Errorf("custom min span = %v days", b.SpanDays())
	}
}

// TestNewAxisEmpty verifies the empty span error
func TestNewAxisEmpty(t *testing.T) {
	if _, err := NewAxis(nil, 0); !errors.Is(err, ErrEmptyDateSpan) {
		t.Errorf("expected ErrEmptyDateSpan, got %v", err)
	}
}

type expandedSet map[string]bool

func (e expandedSet) IsExpanded(id string) bool { return e[id] }

// TestRows verifies positions, depth and last-child flags
func TestRows(t *testing.T) {
	tr, err := tree.Build("wf", []model.TaskRecord{
		{ID: "a"},
		{ID: "a1", GroupID: model.GroupRef("a")},
		{ID: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	v := tree.NewVisibility(tr)
	v.ExpandAll()

	rows := Rows(v.Visible(), v)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r.Position != i {
			t.Errorf("row %d position %d", i, r.Position)
		}
	}
	if rows[1].Node.ID != "a" || !rows[1].Expanded || !rows[1].IsGroup || rows[1].Last {
		t.Errorf("unexpected row for a: %+v", rows[1])
	}
	if rows[2].Node.ID != "a1" || rows[2].Depth != 2 || !rows[2].Last {
		t.Errorf("unexpected row for a1: %+v", rows[2])
	}
	if !rows[3].Last || !rows[0].Last {
		t.Error("b and root should be last")
	}

	if got := Rows(v.Visible(), expandedSet{}); got[1].Expanded {
		t.Error("expansion source should drive Expanded")
	}
}
