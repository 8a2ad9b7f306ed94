package datasource

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/rerungrid/pkg/loader"
)

func createTaskDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE task (task_id TEXT PRIMARY KEY, label TEXT, group_id TEXT)`,
		`CREATE TABLE task_instance (task_id TEXT NOT NULL, execution_date TEXT NOT NULL)`,
		`INSERT INTO task VALUES ('etl', 'ETL', NULL)`,
		`INSERT INTO task VALUES ('extract', NULL, 'etl')`,
		`INSERT INTO task VALUES ('report', 'Report', '')`,
		`INSERT INTO task_instance VALUES ('extract', '2024-01-01T00:00:00Z')`,
		`INSERT INTO task_instance VALUES ('extract', '2024-01-02T00:00:00Z')`,
		`INSERT INTO task_instance VALUES ('report', '2024-01-02T00:00:00Z')`,
		`INSERT INTO task_instance VALUES ('ghost', '2024-01-02T00:00:00Z')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func TestDetectSource(t *testing.T) {
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "tasks.jsonl")
	dbPath := filepath.Join(dir, "tasks.db")
	other := filepath.Join(dir, "tasks.csv")
	for _, p := range []string{jsonl, dbPath, other} {
		if err := os.WriteFile(p, []byte{}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if src, err := DetectSource(jsonl); err != nil || src.Type != SourceTypeFile {
		t.Errorf("jsonl: got %+v, %v", src, err)
	}
	if src, err := DetectSource(dbPath); err != nil || src.Type != SourceTypeSQLite {
		t.Errorf("db: got %+v, %v", src, err)
	}
	if _, err := DetectSource(other); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := DetectSource(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := DetectSource(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := DetectSource(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.sqlite")
	createTaskDB(t, path)

	ds, src, err := LoadPath(context.Background(), path, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if src.Type != SourceTypeSQLite {
		t.Fatalf("expected sqlite source, got %s", src.Type)
	}
	if len(ds.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(ds.Tasks))
	}
	if ds.Skipped != 1 {
		t.Errorf("expected the ghost instance skipped, got %d", ds.Skipped)
	}

	etl, extract, report := ds.Tasks[0], ds.Tasks[1], ds.Tasks[2]
	if etl.GroupID != nil || etl.Label != "ETL" {
		t.Errorf("unexpected etl record %+v", etl)
	}
	if extract.Parent() != "etl" || extract.Label != "" {
		t.Errorf("unexpected extract record %+v", extract)
	}
	if len(extract.TaskInstances) != 2 || extract.TaskInstances[0] != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected extract instances %v", extract.TaskInstances)
	}
	if report.GroupID != nil {
		t.Errorf("empty group_id should read as top-level, got %q", *report.GroupID)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, _, err := LoadPath(context.Background(), path, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if ds.Format != loader.FormatArray || len(ds.Tasks) != 1 {
		t.Errorf("unexpected dataset %+v", ds)
	}
}

func TestNewSQLiteReaderRejectsFile(t *testing.T) {
	if _, err := NewSQLiteReader(DataSource{Type: SourceTypeFile, Path: "x.json"}); err == nil {
		t.Error("expected error for non-sqlite source")
	}
}

func TestLoadSQLiteMissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE other (x INTEGER)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, _, err := LoadPath(context.Background(), path, loader.ParseOptions{}); err == nil {
		t.Error("expected error when task tables are missing")
	}
}
