// Package model defines the task records consumed by the tree-grid engine and
// the exclusion triples it hands back for a rerun request.
package model

import (
	"fmt"
	"strings"
	"time"
)

// RootTaskID is the id of the synthetic root every top-level task hangs off.
const RootTaskID = "[DAG]"

// TaskRecord is one task (or task group) of a workflow as delivered by the
// data-fetch collaborator. GroupID is nil for top-level tasks.
type TaskRecord struct {
	ID            string   `json:"id"`
	Label         string   `json:"label,omitempty"`
	GroupID       *string  `json:"group_id"`
	TaskInstances []string `json:"task_instances,omitempty"`
}

// Parent returns the group id or the empty string for top-level records.
func (r TaskRecord) Parent() string {
	if r.GroupID == nil {
		return ""
	}
	return *r.GroupID
}

// DisplayLabel returns the label, falling back to the id.
func (r TaskRecord) DisplayLabel() string {
	if strings.TrimSpace(r.Label) != "" {
		return r.Label
	}
	return r.ID
}

// Validate checks the record in isolation. Linkage between records is checked
// by the tree builder.
func (r TaskRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	if r.ID == RootTaskID {
		return fmt.Errorf("task id %q is reserved for the workflow root", RootTaskID)
	}
	if r.GroupID != nil && *r.GroupID == r.ID {
		return fmt.Errorf("task %q cannot be its own group", r.ID)
	}
	return nil
}

// GroupRef is a convenience for building records in code and tests.
func GroupRef(id string) *string {
	return &id
}

// Exclusion identifies one task-instance to leave out of a rerun.
type Exclusion struct {
	WorkflowID    string    `json:"workflow_id"`
	TaskID        string    `json:"task_id"`
	ExecutionDate time.Time `json:"execution_date"`
}

// String renders the exclusion as task@date.
func (e Exclusion) String() string {
	return fmt.Sprintf("%s@%s", e.TaskID, e.ExecutionDate.Format(time.RFC3339))
}

// RerunRequest is the document handed to the UI-submission collaborator.
type RerunRequest struct {
	WorkflowID  string             `json:"workflow_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	StartDate   *time.Time         `json:"start_date,omitempty"`
	EndDate     *time.Time         `json:"end_date,omitempty"`
	Exclude     []ExcludedInstance `json:"exclude"`
}

// ExcludedInstance is the per-entry shape inside a RerunRequest.
type ExcludedInstance struct {
	TaskID        string    `json:"task_id"`
	ExecutionDate time.Time `json:"execution_date"`
}
