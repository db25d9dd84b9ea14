package search

import (
	"context"
	"testing"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
	"github.com/rcliao/engram/internal/store"
)

type fakeStore struct {
	memories    map[string]model.Memory
	lexicalHits []string
	neighbors   map[string][]string
	entityIDs   []string
	accessTimes map[string][]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memories:    map[string]model.Memory{},
		neighbors:   map[string][]string{},
		accessTimes: map[string][]float64{},
	}
}

func (f *fakeStore) List(ctx context.Context, filter store.ListFilter) ([]model.Memory, error) {
	var out []model.Memory
	if filter.IDs != nil {
		for _, id := range filter.IDs {
			if m, ok := f.memories[id]; ok {
				out = append(out, m)
			}
		}
		return out, nil
	}
	for _, m := range f.memories {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) LexicalSearch(ctx context.Context, query string, limit int) ([]string, error) {
	return f.lexicalHits, nil
}

func (f *fakeStore) ExpandEntities(ctx context.Context, entities []string) ([]string, error) {
	return f.entityIDs, nil
}

func (f *fakeStore) Neighbors(ctx context.Context, id string) ([]string, error) {
	return f.neighbors[id], nil
}

func (f *fakeStore) AccessTimes(ctx context.Context, memoryID string) ([]float64, error) {
	return f.accessTimes[memoryID], nil
}

func TestRunRanksLexicalHitsHigher(t *testing.T) {
	f := newFakeStore()
	f.memories["a"] = model.Memory{ID: "a", Content: "deploy the service", MemoryType: model.TypeProcedural, Layer: model.LayerWorking, Importance: 0.5, WorkingStrength: 1, Stability: 3, CreatedAt: 0, LastAccessedAt: 0}
	f.memories["b"] = model.Memory{ID: "b", Content: "unrelated content", MemoryType: model.TypeFactual, Layer: model.LayerWorking, Importance: 0.5, WorkingStrength: 1, Stability: 3, CreatedAt: 0, LastAccessedAt: 0}
	f.lexicalHits = []string{"a"}

	cfg := config.DefaultConfig()
	results, err := Run(context.Background(), f, Options{Query: "deploy", Limit: 5}, cfg, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].ID != "a" {
		t.Errorf("expected lexical hit 'a' ranked first, got %q", results[0].ID)
	}
}

func TestRunFallsBackToAllOnNoLexicalHits(t *testing.T) {
	f := newFakeStore()
	f.memories["a"] = model.Memory{ID: "a", Content: "alpha", MemoryType: model.TypeFactual, Layer: model.LayerWorking, Importance: 0.5, WorkingStrength: 1, Stability: 3}
	f.lexicalHits = nil

	cfg := config.DefaultConfig()
	results, err := Run(context.Background(), f, Options{Query: "nonexistent term", Limit: 5}, cfg, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected fallback to all memories, got %d results", len(results))
	}
}

func TestRunFiltersByMinConfidence(t *testing.T) {
	f := newFakeStore()
	f.memories["a"] = model.Memory{ID: "a", Content: "old weak fact", MemoryType: model.TypeOpinion, Layer: model.LayerWorking, Importance: 0.1, WorkingStrength: 0.01, Stability: 0.1, LastAccessedAt: 0}

	cfg := config.DefaultConfig()
	results, err := Run(context.Background(), f, Options{MinConfidence: 0.99, Limit: 5}, cfg, 1e6)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected low-confidence memory filtered out, got %d", len(results))
	}
}

func TestRunGraphExpand(t *testing.T) {
	f := newFakeStore()
	f.memories["a"] = model.Memory{ID: "a", Content: "a", MemoryType: model.TypeFactual, Layer: model.LayerWorking, Importance: 0.5, WorkingStrength: 1, Stability: 3}
	f.memories["b"] = model.Memory{ID: "b", Content: "b", MemoryType: model.TypeFactual, Layer: model.LayerWorking, Importance: 0.5, WorkingStrength: 1, Stability: 3}
	f.lexicalHits = []string{"a"}
	f.neighbors["a"] = []string{"b"}

	cfg := config.DefaultConfig()
	results, err := Run(context.Background(), f, Options{Query: "a", Limit: 5, GraphExpand: true}, cfg, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	ids := map[string]bool{}
	for _, r := range results {
		ids[r.ID] = true
	}
	if !ids["b"] {
		t.Error("expected graph-expanded neighbor 'b' to be included")
	}
}
