package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleOrOrphan matches every CycleOrOrphanError via errors.Is.
var ErrCycleOrOrphan = errors.New("malformed task hierarchy")

// Reason classifies why a hierarchy was rejected.
type Reason string

const (
	ReasonInvalid      Reason = "invalid"
	ReasonDuplicate    Reason = "duplicate"
	ReasonOrphan       Reason = "orphan"
	ReasonCycle        Reason = "cycle"
	ReasonDisconnected Reason = "disconnected"
)

// CycleOrOrphanError reports a task hierarchy that does not form a single
// rooted tree. Construction aborts and nothing is returned.
type CycleOrOrphanError struct {
	TaskID  string
	GroupID string
	Reason  Reason
	Cycle   []string // task ids on the cycle, for ReasonCycle
	Detail  string
}

func (e *CycleOrOrphanError) Error() string {
	switch e.Reason {
	case ReasonOrphan:
		return fmt.Sprintf("task %q references unknown group %q", e.TaskID, e.GroupID)
	case ReasonDuplicate:
		return fmt.Sprintf("task id %q appears more than once", e.TaskID)
	case ReasonCycle:
		return fmt.Sprintf("group cycle detected: %s", strings.Join(e.Cycle, " -> "))
	case ReasonDisconnected:
		return fmt.Sprintf("task %q is not reachable from the workflow root", e.TaskID)
	default:
		return fmt.Sprintf("invalid task %q: %s", e.TaskID, e.Detail)
	}
}

// Is lets callers match with errors.Is(err, ErrCycleOrOrphan).
func (e *CycleOrOrphanError) Is(target error) bool {
	return target == ErrCycleOrOrphan
}

// UnknownNodeError is returned when a visibility toggle names a node the
// tree does not contain.
type UnknownNodeError struct {
	NodeID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.NodeID)
}
