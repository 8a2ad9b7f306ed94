// Package loader reads task records from JSON files.
//
// Three layouts are accepted: a JSON array of records, JSON Lines (one record
// per line), and an envelope object {"workflow_id": ..., "tasks": [...]}.
// Malformed entries are skipped with a warning; structural problems such as
// orphans or cycles are left to the tree builder.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// DefaultMaxBufferSize is the default buffer size for the line scanner (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// Format identifies the layout a records file was read as.
type Format string

const (
	FormatArray    Format = "array"
	FormatJSONL    Format = "jsonl"
	FormatEnvelope Format = "envelope"
	FormatSQLite   Format = "sqlite"
)

// ParseOptions configures the behavior of ParseRecords.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed JSON).
	// If nil, warnings are printed to os.Stderr unless RRG_ROBOT=1.
	WarningHandler func(string)

	// BufferSize sets the maximum JSONL line size in bytes.
	// Lines longer than this are skipped with a warning.
	// If 0, uses DefaultMaxBufferSize (10MB).
	BufferSize int
}

// Dataset is the outcome of loading one records source.
type Dataset struct {
	WorkflowID string             `json:"workflow_id,omitempty"`
	Format     Format             `json:"format"`
	Tasks      []model.TaskRecord `json:"tasks"`
	Skipped    int                `json:"skipped"`
}

type envelope struct {
	WorkflowID string             `json:"workflow_id"`
	Tasks      *[]json.RawMessage `json:"tasks"`
}

// LoadRecordsFromFile reads records from path.
func LoadRecordsFromFile(path string, opts ParseOptions) (Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Dataset{}, fmt.Errorf("no task records found at %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	return ParseRecords(file, opts)
}

// ParseRecords detects the layout of r and parses every record in it.
func ParseRecords(r io.Reader, opts ParseOptions) (Dataset, error) {
	defer metrics.Timer(metrics.RecordsLoad)()

	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv("RRG_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	br := bufio.NewReaderSize(r, maxCapacity)

	first, err := peekFirstByte(br)
	if err != nil {
		if err == io.EOF {
			return Dataset{Format: FormatJSONL}, nil
		}
		return Dataset{}, fmt.Errorf("error reading records stream: %w", err)
	}

	if first == '[' {
		data, err := readAll(br)
		if err != nil {
			return Dataset{}, err
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return Dataset{}, fmt.Errorf("parsing record array: %w", err)
		}
		ds := Dataset{Format: FormatArray}
		ds.Tasks, ds.Skipped = decodeEntries(raw, "element", warn)
		return ds, nil
	}

	// An envelope is a single object carrying a tasks array. Anything else
	// starting with '{' is read as JSON Lines.
	data, err := readAll(br)
	if err != nil {
		return Dataset{}, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Tasks != nil {
		ds := Dataset{WorkflowID: env.WorkflowID, Format: FormatEnvelope}
		ds.Tasks, ds.Skipped = decodeEntries(*env.Tasks, "task", warn)
		return ds, nil
	}

	return parseLines(bytes.NewReader(data), maxCapacity, warn)
}

func parseLines(r io.Reader, maxCapacity int, warn func(string)) (Dataset, error) {
	ds := Dataset{Format: FormatJSONL}
	reader := bufio.NewReaderSize(r, maxCapacity)

	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Dataset{}, fmt.Errorf("error reading records stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			ds.Skipped++
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return Dataset{}, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec model.TaskRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			ds.Skipped++
			continue
		}
		ds.Tasks = append(ds.Tasks, rec)
	}

	return ds, nil
}

func decodeEntries(raw []json.RawMessage, what string, warn func(string)) ([]model.TaskRecord, int) {
	tasks := make([]model.TaskRecord, 0, len(raw))
	skipped := 0
	for i, msg := range raw {
		var rec model.TaskRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed %s %d: %v", what, i, err))
			skipped++
			continue
		}
		tasks = append(tasks, rec)
	}
	return tasks, skipped
}

// peekFirstByte skips a UTF-8 BOM and leading whitespace and reports the
// first significant byte without consuming it.
func peekFirstByte(br *bufio.Reader) (byte, error) {
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading records stream: %w", err)
	}
	return data, nil
}
