package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/export"
	"github.com/vanderheijden86/rerungrid/pkg/grid"
	"github.com/vanderheijden86/rerungrid/pkg/hooks"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
	"github.com/vanderheijden86/rerungrid/pkg/selection"
)

// robotCell is one cell in --robot-rows output.
type robotCell struct {
	Date    time.Time `json:"date"`
	Kind    string    `json:"kind"`
	Checked bool      `json:"checked"`
}

// robotRow is one visible row in --robot-rows output.
type robotRow struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Position int         `json:"position"`
	Depth    int         `json:"depth"`
	Group    bool        `json:"group"`
	Expanded bool        `json:"expanded"`
	Cells    []robotCell `json:"cells"`
}

type robotRowsOutput struct {
	WorkflowID string     `json:"workflow_id"`
	Stats      grid.Stats `json:"stats"`
	Rows       []robotRow `json:"rows"`
}

type robotMetricsOutput struct {
	Enabled bool                  `json:"enabled"`
	Timings []metrics.TimingStats `json:"timings"`
}

func runHeadless(o options, e *grid.Engine, stdout, stderr io.Writer) error {
	req := export.BuildRerunRequest(e.WorkflowID(), e.QueryExcluded(), e.Dates())

	if o.exportRequest != "" {
		if err := export.ConfirmOverwrite(o.exportRequest, o.yes); err != nil {
			return err
		}
		if err := writeRequestWithHooks(o, req, stderr); err != nil {
			return err
		}
	}
	if o.exportSnapshot != "" {
		if err := export.ConfirmOverwrite(o.exportSnapshot, o.yes); err != nil {
			return err
		}
		if err := export.SaveSnapshot(export.SnapshotOptions{Path: o.exportSnapshot, Grid: e}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if o.robotExcluded {
		if err := enc.Encode(req); err != nil {
			return err
		}
	}
	if o.robotRows {
		if err := enc.Encode(buildRobotRows(e)); err != nil {
			return err
		}
	}
	if o.robotMetrics {
		out := robotMetricsOutput{Enabled: metrics.Enabled(), Timings: metrics.AllTimingStats()}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// writeRequestWithHooks writes the rerun request between the pre-export and
// post-export hooks from .rrg/hooks.yaml. A failing pre-export hook cancels
// the write.
func writeRequestWithHooks(o options, req model.RerunRequest, stderr io.Writer) error {
	ctx := hooks.ExportContext{
		RequestPath:   o.exportRequest,
		WorkflowID:    req.WorkflowID,
		ExcludedCount: len(req.Exclude),
		Timestamp:     time.Now(),
	}
	executor, err := hooks.RunHooks("", ctx, o.noHooks)
	if err != nil {
		return fmt.Errorf("loading hooks: %w", err)
	}
	if executor != nil {
		if err := executor.RunPreExport(); err != nil {
			fmt.Fprint(stderr, executor.Summary())
			return err
		}
	}
	if err := export.WriteRerunRequest(o.exportRequest, req); err != nil {
		return err
	}
	if executor != nil {
		if err := executor.RunPostExport(); err != nil {
			fmt.Fprint(stderr, executor.Summary())
			return err
		}
		fmt.Fprint(stderr, executor.Summary())
	}
	return nil
}

func buildRobotRows(e *grid.Engine) robotRowsOutput {
	out := robotRowsOutput{WorkflowID: e.WorkflowID(), Stats: e.Stats()}
	for _, r := range e.Rows() {
		row := robotRow{
			ID:       r.Node.ID,
			Label:    r.Node.Label,
			Position: r.Position,
			Depth:    r.Depth,
			Group:    r.IsGroup,
			Expanded: r.Expanded,
			Cells:    []robotCell{},
		}
		for _, c := range e.RowCells(r.Node.ID) {
			row.Cells = append(row.Cells, robotCell{Date: c.Date, Kind: c.Kind.String(), Checked: c.Checked})
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// applyExcludes unchecks each task@date cell in list. Group cells cascade
// to their descendants like a toggle would.
func applyExcludes(e *grid.Engine, list string) error {
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		at := strings.LastIndex(item, "@")
		if at <= 0 || at == len(item)-1 {
			return fmt.Errorf("invalid --exclude entry %q (want task@date)", item)
		}
		taskID, raw := item[:at], item[at+1:]
		date, err := selection.ParseDate(raw)
		if err != nil {
			return fmt.Errorf("invalid --exclude date in %q: %w", item, err)
		}
		if err := e.SetCellChecked(taskID, date, false); err != nil {
			return fmt.Errorf("--exclude %q: %w", item, err)
		}
	}
	return nil
}
