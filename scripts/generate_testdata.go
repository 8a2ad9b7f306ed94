//go:build ignore

// generate_testdata.go writes synthetic task records for benchmarking the
// grid against large workflows.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.jsonl   (3x4 tree, 14 days)
//	tests/testdata/benchmark/medium.jsonl  (4x6 tree, 30 days)
//	tests/testdata/benchmark/large.jsonl   (5x6 tree, 90 days)
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/rerungrid/pkg/testutil"
)

type datasetSpec struct {
	name    string
	depth   int
	breadth int
	days    int
}

var datasets = []datasetSpec{
	{"small", 3, 4, 14},
	{"medium", 4, 6, 30},
	{"large", 5, 6, 90},
}

func main() {
	outputDir := filepath.Join("tests", "testdata", "benchmark")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		gen := testutil.New(testutil.GeneratorConfig{Seed: 42, Days: ds.days, Density: 0.8})
		records := gen.Tree(ds.depth, ds.breadth)
		path := filepath.Join(outputDir, ds.name+".jsonl")

		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", path, err)
			os.Exit(1)
		}
		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", r.ID, err)
				os.Exit(1)
			}
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		f.Close()

		leaves, instances := testutil.CountLeaves(records)
		fmt.Printf("%s: %d tasks, %d leaves, %d instances\n", path, len(records), leaves, instances)
	}
}
