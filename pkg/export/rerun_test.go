package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/model"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
	return ts
}

func TestBuildRerunRequest(t *testing.T) {
	ts := fixedNow(t)
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	exclusions := []model.Exclusion{
		{WorkflowID: "etl", TaskID: "load", ExecutionDate: d2},
		{WorkflowID: "etl", TaskID: "extract", ExecutionDate: d1},
	}

	req := BuildRerunRequest("etl", exclusions, []time.Time{d2, d1, d2})

	if req.WorkflowID != "etl" || !req.GeneratedAt.Equal(ts) {
		t.Errorf("unexpected header %+v", req)
	}
	if req.StartDate == nil || !req.StartDate.Equal(d1) || req.EndDate == nil || !req.EndDate.Equal(d2) {
		t.Errorf("unexpected window %v..%v", req.StartDate, req.EndDate)
	}
	if len(req.Exclude) != 2 || req.Exclude[0].TaskID != "load" || req.Exclude[1].TaskID != "extract" {
		t.Errorf("exclusion order not kept: %+v", req.Exclude)
	}
}

func TestBuildRerunRequestEmpty(t *testing.T) {
	fixedNow(t)
	req := BuildRerunRequest("etl", nil, nil)
	if req.StartDate != nil || req.EndDate != nil {
		t.Error("expected no window without dates")
	}

	var buf bytes.Buffer
	if err := EncodeRerunRequest(&buf, req); err != nil {
		t.Fatalf("EncodeRerunRequest: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"exclude": []`) {
		t.Errorf("expected empty exclude array, got:\n%s", out)
	}
	if strings.Contains(out, "start_date") {
		t.Errorf("expected start_date omitted, got:\n%s", out)
	}
}

func TestWriteRerunRequest(t *testing.T) {
	fixedNow(t)
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	req := BuildRerunRequest("etl", []model.Exclusion{{TaskID: "x", ExecutionDate: d}}, []time.Time{d})

	path := filepath.Join(t.TempDir(), "out", "request.json")
	if err := WriteRerunRequest(path, req); err != nil {
		t.Fatalf("WriteRerunRequest: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		WorkflowID string `json:"workflow_id"`
		Exclude    []struct {
			TaskID        string `json:"task_id"`
			ExecutionDate string `json:"execution_date"`
		} `json:"exclude"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.WorkflowID != "etl" || len(doc.Exclude) != 1 {
		t.Fatalf("unexpected document %s", data)
	}
	if doc.Exclude[0].TaskID != "x" || doc.Exclude[0].ExecutionDate != "2024-01-02T00:00:00Z" {
		t.Errorf("unexpected entry %+v", doc.Exclude[0])
	}

	if err := WriteRerunRequest("", req); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestDefaultRequestName(t *testing.T) {
	fixedNow(t)
	if got := DefaultRequestName("etl"); got != "rerun-etl-20240301T120000Z.json" {
		t.Errorf("unexpected name %q", got)
	}
	if got := DefaultRequestName(""); !strings.HasPrefix(got, "rerun-workflow-") {
		t.Errorf("unexpected fallback name %q", got)
	}
}
