package selection

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order. Layouts without a zone parse as UTC; all
// others keep the offset they were written with.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// InvalidDateError reports a task instance date that cannot be parsed.
type InvalidDateError struct {
	TaskID string
	Value  string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("task %q: cannot parse execution date %q", e.TaskID, e.Value)
}

// ParseDate parses an execution date, preserving its original offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DateKey identifies an instant independently of the offset it was written
// with, so the same execution written two ways is one date.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// CellID is the deterministic id of the cell for node nodeID on date.
func CellID(nodeID string, date time.Time) string {
	return nodeID + "|" + DateKey(date)
}
