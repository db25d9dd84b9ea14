package store

import (
	"context"
	"testing"

	"github.com/rcliao/engram/internal/model"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "a", MemoryType: model.TypeFactual, Importance: 0.5, Now: 100})
	m2, _ := s.Add(ctx, AddParams{Content: "b", MemoryType: model.TypeEpisodic, Importance: 0.3, Now: 100})
	s.SetPinned(ctx, m2.ID, true)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("expected total 2, got %d", stats.Total)
	}
	if stats.PinnedCount != 1 {
		t.Errorf("expected 1 pinned, got %d", stats.PinnedCount)
	}
	if stats.ByType["factual"] != 1 || stats.ByType["episodic"] != 1 {
		t.Errorf("expected 1 of each type, got %v", stats.ByType)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("expected 0 total on empty store, got %d", stats.Total)
	}
}
