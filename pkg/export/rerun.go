// Package export writes the outputs handed to collaborators: the rerun
// request document and static snapshots of the grid.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// now is swapped in tests.
var now = time.Now

// BuildRerunRequest assembles the rerun document from the excluded
// task-instances. The date window is the min and max of dates; it is left
// empty when dates is empty. Exclusions keep their given order.
func BuildRerunRequest(workflowID string, exclusions []model.Exclusion, dates []time.Time) model.RerunRequest {
	req := model.RerunRequest{
		WorkflowID:  workflowID,
		GeneratedAt: now().UTC(),
		Exclude:     make([]model.ExcludedInstance, 0, len(exclusions)),
	}
	for _, ex := range exclusions {
		req.Exclude = append(req.Exclude, model.ExcludedInstance{
			TaskID:        ex.TaskID,
			ExecutionDate: ex.ExecutionDate,
		})
	}
	if len(dates) > 0 {
		lo, hi := dates[0], dates[0]
		for _, d := range dates[1:] {
			if d.Before(lo) {
				lo = d
			}
			if d.After(hi) {
				hi = d
			}
		}
		req.StartDate = &lo
		req.EndDate = &hi
	}
	return req
}

// EncodeRerunRequest writes req as indented JSON.
func EncodeRerunRequest(w io.Writer, req model.RerunRequest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		return fmt.Errorf("encoding rerun request: %w", err)
	}
	return nil
}

// WriteRerunRequest writes req to path, creating parent directories.
func WriteRerunRequest(path string, req model.RerunRequest) error {
	defer metrics.Timer(metrics.ExportWrite)()

	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeRerunRequest(f, req); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DefaultRequestName is the file name used when only a directory is known.
func DefaultRequestName(workflowID string) string {
	if workflowID == "" {
		workflowID = "workflow"
	}
	return fmt.Sprintf("rerun-%s-%s.json", workflowID, now().UTC().Format("20060102T150405Z"))
}
