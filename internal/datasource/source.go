// Package datasource resolves where task records come from and reads them.
// JSON and JSONL files go through pkg/loader; SQLite databases are read
// directly with a read-only connection.
package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/debug"
	"github.com/vanderheijden86/rerungrid/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database with task and task_instance tables
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeFile is a JSON or JSONL records file
	SourceTypeFile SourceType = "file"
)

// DataSource describes one resolved records source.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s, %d bytes)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.Size)
}

// DetectSource stats path and picks a reader by extension.
func DetectSource(path string) (DataSource, error) {
	if path == "" {
		return DataSource{}, fmt.Errorf("no records source given")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, fmt.Errorf("records source: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("records source %s is a directory", abs)
	}

	src := DataSource{Path: abs, ModTime: info.ModTime(), Size: info.Size()}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".db", ".sqlite", ".sqlite3":
		src.Type = SourceTypeSQLite
	case ".json", ".jsonl", "":
		src.Type = SourceTypeFile
	default:
		return DataSource{}, fmt.Errorf("unsupported records source extension %q", filepath.Ext(abs))
	}
	debug.Log("detected source %s", src)
	return src, nil
}

// Load reads every task record from src.
func Load(ctx context.Context, src DataSource, opts loader.ParseOptions) (loader.Dataset, error) {
	switch src.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(src)
		if err != nil {
			return loader.Dataset{}, err
		}
		defer reader.Close()
		return reader.LoadDataset(ctx)
	case SourceTypeFile:
		return loader.LoadRecordsFromFile(src.Path, opts)
	default:
		return loader.Dataset{}, fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// LoadPath is DetectSource followed by Load.
func LoadPath(ctx context.Context, path string, opts loader.ParseOptions) (loader.Dataset, DataSource, error) {
	src, err := DetectSource(path)
	if err != nil {
		return loader.Dataset{}, DataSource{}, err
	}
	ds, err := Load(ctx, src, opts)
	return ds, src, err
}
