package store

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

func TestConsolidatePromotesImportantMemory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cfg := config.DefaultConfig()

	m, err := s.Add(ctx, AddParams{
		Content:         "critical fact",
		MemoryType:      model.TypeFactual,
		Importance:      0.9,
		WorkingStrength: 2.0,
		CoreStrength:    0.3,
		Stability:       3.0,
		Now:             1000,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	summary, err := s.Consolidate(ctx, 2, cfg.Consolidation, cfg.Hebbian, cfg.Downscale.Factor, 1000+2*86400, rng)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("expected 1 processed, got %d", summary.Processed)
	}

	got, _ := s.Get(ctx, m.ID)
	if got.Layer != model.LayerCore {
		t.Errorf("expected layer core after consolidation of a high-importance memory, got %s", got.Layer)
	}
}

// TestConsolidateZeroDaysIsIdempotent covers spec.md's Testable Property 4
// ("idempotence of zero-cycle"): a consolidate(days=0) call following a
// real cycle must leave every strength untouched; replay sampling and
// downscaling are skipped when days is 0.
func TestConsolidateZeroDaysIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cfg := config.DefaultConfig()

	m, err := s.Add(ctx, AddParams{
		Content:         "steady fact",
		MemoryType:      model.TypeFactual,
		Importance:      0.5,
		WorkingStrength: 1.0,
		CoreStrength:    0.1,
		Stability:       3.0,
		Now:             1000,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	if _, err := s.Consolidate(ctx, 2, cfg.Consolidation, cfg.Hebbian, cfg.Downscale.Factor, 1000+2*86400, rng); err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	before, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	summary, err := s.Consolidate(ctx, 0, cfg.Consolidation, cfg.Hebbian, cfg.Downscale.Factor, 1000+2*86400, rng)
	if err != nil {
		t.Fatalf("consolidate(days=0): %v", err)
	}
	if summary.Replayed != 0 {
		t.Errorf("expected no replay sampling on a zero-day cycle, got %d", summary.Replayed)
	}

	after, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.WorkingStrength != before.WorkingStrength {
		t.Errorf("expected working_strength unchanged by a zero-day cycle, got %v -> %v", before.WorkingStrength, after.WorkingStrength)
	}
	if after.CoreStrength != before.CoreStrength {
		t.Errorf("expected core_strength unchanged by a zero-day cycle, got %v -> %v", before.CoreStrength, after.CoreStrength)
	}
}

func TestDownscaleSkipsPinned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, _ := s.Add(ctx, AddParams{Content: "pinned", MemoryType: model.TypeFactual, WorkingStrength: 2.0, CoreStrength: 1.0, Now: 100})
	s.SetPinned(ctx, m.ID, true)

	other, _ := s.Add(ctx, AddParams{Content: "unpinned", MemoryType: model.TypeFactual, WorkingStrength: 2.0, CoreStrength: 1.0, Now: 100})

	count, err := s.Downscale(ctx, 0.5)
	if err != nil {
		t.Fatalf("downscale: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 memory downscaled, got %d", count)
	}

	gotPinned, _ := s.Get(ctx, m.ID)
	if gotPinned.WorkingStrength != 2.0 {
		t.Errorf("expected pinned memory unchanged, got working_strength %v", gotPinned.WorkingStrength)
	}
	gotOther, _ := s.Get(ctx, other.ID)
	if gotOther.WorkingStrength != 1.0 {
		t.Errorf("expected unpinned memory halved, got working_strength %v", gotOther.WorkingStrength)
	}
}
