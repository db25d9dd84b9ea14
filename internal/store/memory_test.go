package store

import (
	"context"
	"testing"

	"github.com/rcliao/engram/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, err := s.Add(ctx, AddParams{
		Content:    "the sky is blue",
		MemoryType: model.TypeFactual,
		Importance: 0.5,
		Now:        1000,
		Entities:   []string{"Sky"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if mem.ID == "" {
		t.Fatal("expected non-empty id")
	}

	got, err := s.Get(ctx, mem.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "the sky is blue" {
		t.Errorf("content mismatch: %q", got.Content)
	}
	if len(got.Entities) != 1 || got.Entities[0] != "Sky" {
		t.Errorf("expected entities [Sky], got %v", got.Entities)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "a", MemoryType: model.TypeFactual, Now: 100})
	s.Add(ctx, AddParams{Content: "b", MemoryType: model.TypeEpisodic, Now: 200})

	all, err := s.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}

	factual, _ := s.List(ctx, ListFilter{Types: []model.MemoryType{model.TypeFactual}})
	if len(factual) != 1 || factual[0].Content != "a" {
		t.Errorf("expected only 'a', got %v", factual)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m1, _ := s.Add(ctx, AddParams{Content: "first", MemoryType: model.TypeFactual, Now: 100})
	m2, _ := s.Add(ctx, AddParams{Content: "second", MemoryType: model.TypeFactual, Now: 100})
	s.RecordRetrievals(ctx, []string{m1.ID, m2.ID}, 100, 0.1, HebbianParams{Enabled: true, FormThreshold: 1})

	if err := s.Delete(ctx, m1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, m1.ID); err == nil {
		t.Error("expected not-found after delete")
	}
	neighbors, _ := s.Neighbors(ctx, m2.ID)
	if len(neighbors) != 0 {
		t.Errorf("expected no neighbors after cascade delete, got %v", neighbors)
	}
}

func TestSetContradictionConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old, _ := s.Add(ctx, AddParams{Content: "paris is in germany", MemoryType: model.TypeFactual, Now: 100})
	newer, _ := s.Add(ctx, AddParams{Content: "paris is in france", MemoryType: model.TypeFactual, Now: 200})

	if err := s.SetContradiction(ctx, old.ID, newer.ID); err != nil {
		t.Fatalf("set contradiction: %v", err)
	}

	got, _ := s.Get(ctx, old.ID)
	if got.ContradictedBy != newer.ID {
		t.Errorf("expected contradicted_by %s, got %s", newer.ID, got.ContradictedBy)
	}

	third, _ := s.Add(ctx, AddParams{Content: "paris is in spain", MemoryType: model.TypeFactual, Now: 300})
	if err := s.SetContradiction(ctx, old.ID, third.ID); err == nil {
		t.Fatal("expected conflict setting contradiction twice on the same memory")
	}
}

func TestPinning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, _ := s.Add(ctx, AddParams{Content: "pinned fact", MemoryType: model.TypeFactual, Now: 100})
	if err := s.SetPinned(ctx, m.ID, true); err != nil {
		t.Fatalf("pin: %v", err)
	}
	got, _ := s.Get(ctx, m.ID)
	if !got.Pinned {
		t.Error("expected pinned = true")
	}
}
