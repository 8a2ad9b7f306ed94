package testutil

import (
	"testing"
	"time"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := New(GeneratorConfig{Seed: 7}).Tree(2, 3)
	b := New(GeneratorConfig{Seed: 7}).Tree(2, 3)
	if len(a) != len(b) {
		t.Fatalf("len %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].TaskInstances) != len(b[i].TaskInstances) {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestTreeShape(t *testing.T) {
	recs := NewDefault().Tree(3, 2)
	// 2 + 4 groups, 8 leaves
	if len(recs) != 14 {
		t.Fatalf("len = %d, want 14", len(recs))
	}
	leaves, instances := CountLeaves(recs)
	if leaves != 8 {
		t.Errorf("leaves = %d, want 8", leaves)
	}
	if instances < leaves {
		t.Errorf("every leaf needs an instance: %d < %d", instances, leaves)
	}
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			t.Errorf("invalid record %s: %v", r.ID, err)
		}
	}
}

func TestChainAndFlat(t *testing.T) {
	g := NewDefault()
	chain := g.Chain(4)
	if len(chain) != 5 || chain[4].Parent() != "g3" || chain[0].GroupID != nil {
		t.Fatalf("chain = %+v", chain)
	}
	flat := g.Flat(5)
	for _, r := range flat {
		if r.GroupID != nil || len(r.TaskInstances) == 0 {
			t.Fatalf("flat record %+v", r)
		}
	}
}

func TestDatesWithinWindow(t *testing.T) {
	g := New(GeneratorConfig{Seed: 1, Days: 5, Density: 1})
	last := BaseDate.AddDate(0, 0, 4)
	for _, r := range g.Flat(3) {
		if len(r.TaskInstances) != 5 {
			t.Fatalf("density 1 should fill every day, got %d", len(r.TaskInstances))
		}
		for _, raw := range r.TaskInstances {
			d, err := time.Parse(time.RFC3339, raw)
			if err != nil || d.Before(BaseDate) || d.After(last) {
				t.Fatalf("date %q outside window", raw)
			}
		}
	}
}

func TestCycleLinks(t *testing.T) {
	recs := Cycle(3)
	if recs[2].Parent() != "c0" {
		t.Fatalf("cycle should close back to c0, got %q", recs[2].Parent())
	}
}
