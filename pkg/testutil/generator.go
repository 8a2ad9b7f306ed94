// Package testutil provides deterministic task-tree fixtures for tests and
// benchmarks. The same seed always yields the same records.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vanderheijden86/rerungrid/pkg/model"
)

// BaseDate is the first execution date handed out by generators.
var BaseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed int64
	// Days is the number of daily execution dates in the window.
	Days int
	// Density is the chance a leaf has an instance on a given day. Every
	// leaf gets at least one instance regardless.
	Density float64
}

// DefaultConfig returns a two-week window with most slots filled.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, Days: 14, Density: 0.8}
}

// Generator produces task records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a generator. Zero Days or Density fall back to the defaults.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.Days <= 0 {
		cfg.Days = def.Days
	}
	if cfg.Density <= 0 {
		cfg.Density = def.Density
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a generator with DefaultConfig.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Dates returns the generator's execution dates in order.
func (g *Generator) Dates() []time.Time {
	out := make([]time.Time, g.cfg.Days)
	for i := range out {
		out[i] = BaseDate.AddDate(0, 0, i)
	}
	return out
}

func (g *Generator) instances() []string {
	var out []string
	for _, d := range g.Dates() {
		if g.rng.Float64() < g.cfg.Density {
			out = append(out, d.Format(time.RFC3339))
		}
	}
	if len(out) == 0 {
		d := g.Dates()[g.rng.Intn(g.cfg.Days)]
		out = append(out, d.Format(time.RFC3339))
	}
	return out
}

// Tree builds a balanced hierarchy: groups at every level above depth, each
// with breadth children, and leaf tasks carrying instances at the bottom.
// depth 1 yields breadth top-level leaves.
func (g *Generator) Tree(depth, breadth int) []model.TaskRecord {
	var out []model.TaskRecord
	var build func(parent *string, prefix string, level int)
	build = func(parent *string, prefix string, level int) {
		for i := 0; i < breadth; i++ {
			id := fmt.Sprintf("%s%d", prefix, i)
			rec := model.TaskRecord{ID: id, GroupID: parent}
			if level == depth {
				rec.TaskInstances = g.instances()
				out = append(out, rec)
				continue
			}
			rec.Label = "group " + id
			out = append(out, rec)
			build(model.GroupRef(id), id+".", level+1)
		}
	}
	build(nil, "t", 1)
	return out
}

// Chain builds groups nested depth levels deep with one leaf at the end.
func (g *Generator) Chain(depth int) []model.TaskRecord {
	out := make([]model.TaskRecord, 0, depth+1)
	var parent *string
	for i := 0; i < depth; i++ {
		id := fmt.Sprintf("g%d", i)
		out = append(out, model.TaskRecord{ID: id, GroupID: parent})
		parent = model.GroupRef(id)
	}
	out = append(out, model.TaskRecord{ID: "leaf", GroupID: parent, TaskInstances: g.instances()})
	return out
}

// Flat builds n top-level leaves.
func (g *Generator) Flat(n int) []model.TaskRecord {
	out := make([]model.TaskRecord, n)
	for i := range out {
		out[i] = model.TaskRecord{ID: fmt.Sprintf("task-%03d", i), TaskInstances: g.instances()}
	}
	return out
}

// Cycle builds size groups whose group links form a loop.
func Cycle(size int) []model.TaskRecord {
	out := make([]model.TaskRecord, size)
	for i := range out {
		out[i] = model.TaskRecord{
			ID:      fmt.Sprintf("c%d", i),
			GroupID: model.GroupRef(fmt.Sprintf("c%d", (i+1)%size)),
		}
	}
	return out
}

// CountLeaves returns the number of records with instances and the total
// instance count.
func CountLeaves(records []model.TaskRecord) (leaves, instances int) {
	for _, r := range records {
		if len(r.TaskInstances) > 0 {
			leaves++
			instances += len(r.TaskInstances)
		}
	}
	return leaves, instances
}
