// Package layout maps the visible part of a task tree to row positions and
// execution dates to a linear axis. Renderers consume its output; it draws
// nothing itself.
package layout

import (
	"errors"
	"math"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/tree"
)

// ErrEmptyDateSpan is returned when there are no dates to build an axis from.
var ErrEmptyDateSpan = errors.New("no leaf task-instances to derive a date span from")

// DefaultMinSpan is the span used when every date is the same instant.
const DefaultMinSpan = 24 * time.Hour

// Expansion reports per-node expand state.
type Expansion interface {
	IsExpanded(id string) bool
}

// Row is one visible node with its hierarchy position.
type Row struct {
	Node     *tree.Node
	Position int // index in the visible pre-order sequence
	Depth    int
	Expanded bool
	IsGroup  bool
	Last     bool // last visible child of its parent
}

// Rows assigns pre-order positions to the visible nodes, which must already
// be in pre-order.
func Rows(visible []*tree.Node, exp Expansion) []Row {
	rows := make([]Row, len(visible))
	lastChild := make(map[*tree.Node]*tree.Node)
	for _, n := range visible {
		if n.Parent != nil {
			lastChild[n.Parent] = n
		}
	}
	for i, n := range visible {
		rows[i] = Row{
			Node:     n,
			Position: i,
			Depth:    n.Depth,
			Expanded: exp != nil && exp.IsExpanded(n.ID),
			IsGroup:  n.IsGroup(),
			Last:     n.Parent == nil || lastChild[n.Parent] == n,
		}
	}
	return rows
}

// Axis is a linear mapping from dates to positions proportional to the
// days elapsed since Min.
type Axis struct {
	Min  time.Time
	Max  time.Time
	span time.Duration
}

// NewAxis computes the true minimum and maximum of dates independently.
// A zero-width span is widened to minSpan (DefaultMinSpan when minSpan <= 0).
func NewAxis(dates []time.Time, minSpan time.Duration) (Axis, error) {
	if len(dates) == 0 {
		return Axis{}, ErrEmptyDateSpan
	}
	if minSpan <= 0 {
		minSpan = DefaultMinSpan
	}
	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	span := hi.Sub(lo)
	if span <= 0 {
		span = minSpan
	}
	return Axis{Min: lo, Max: hi, span: span}, nil
}

// Span returns the axis width as a duration.
func (a Axis) Span() time.Duration {
	return a.span
}

// SpanDays returns the axis width in days.
func (a Axis) SpanDays() float64 {
	return a.span.Hours() / 24
}

// Days returns the days elapsed from Min to t.
func (a Axis) Days(t time.Time) float64 {
	return t.Sub(a.Min).Hours() / 24
}

// Fraction maps t to [0, 1] for dates within the span.
func (a Axis) Fraction(t time.Time) float64 {
	if a.span <= 0 {
		return 0
	}
	return float64(t.Sub(a.Min)) / float64(a.span)
}

// Position maps t onto a range of the given width.
func (a Axis) Position(t time.Time, width float64) float64 {
	return a.Fraction(t) * width
}

// Column maps t onto one of columns discrete slots, clamped to the range.
func (a Axis) Column(t time.Time, columns int) int {
	if columns <= 1 {
		return 0
	}
	col := int(math.Round(a.Fraction(t) * float64(columns-1)))
	return max(0, min(columns-1, col))
}
