package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// WriteRecordsFile writes records as JSONL into dir and returns the path.
func WriteRecordsFile(t *testing.T, dir string, records []model.TaskRecord) string {
	t.Helper()
	path := filepath.Join(dir, "tasks.jsonl")
	var b strings.Builder
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal %s: %v", r.ID, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}
	return path
}

// AssertExclusions compares exclusions by their task@date form, ignoring order.
func AssertExclusions(t *testing.T, got []model.Exclusion, want ...string) {
	t.Helper()
	ids := make([]string, len(got))
	for i, ex := range got {
		ids[i] = ex.String()
	}
	sort.Strings(ids)
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	if strings.Join(ids, ",") != strings.Join(sorted, ",") {
		t.Errorf("exclusions = %v, want %v", ids, sorted)
	}
}
