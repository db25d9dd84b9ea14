package store

import (
	"context"
	"testing"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

func TestApplyRewardBoostsRecentWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cfg := config.DefaultConfig().Reward

	m, err := s.Add(ctx, AddParams{Content: "a", MemoryType: model.TypeFactual, WorkingStrength: 1.0, Stability: 1.0, Now: 100})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	count, err := s.ApplyReward(ctx, 1.0, cfg)
	if err != nil {
		t.Fatalf("apply reward: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 memory modulated, got %d", count)
	}

	got, _ := s.Get(ctx, m.ID)
	if got.WorkingStrength <= 1.0 {
		t.Errorf("expected working_strength increased by positive reward, got %v", got.WorkingStrength)
	}
}

func TestApplyRewardSuppressesOnNegative(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cfg := config.DefaultConfig().Reward

	m, _ := s.Add(ctx, AddParams{Content: "a", MemoryType: model.TypeFactual, WorkingStrength: 1.0, Stability: 1.0, Now: 100})

	_, err := s.ApplyReward(ctx, -1.0, cfg)
	if err != nil {
		t.Fatalf("apply reward: %v", err)
	}

	got, _ := s.Get(ctx, m.ID)
	if got.WorkingStrength >= 1.0 {
		t.Errorf("expected working_strength decreased by negative reward, got %v", got.WorkingStrength)
	}
}

func TestClampWorkingStrength(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m, _ := s.Add(ctx, AddParams{Content: "a", MemoryType: model.TypeFactual, WorkingStrength: 1e6, Now: 100})

	clamped, err := s.ClampWorkingStrength(ctx, 1e4)
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}
	if len(clamped) != 1 || clamped[0] != m.ID {
		t.Fatalf("expected %s clamped, got %v", m.ID, clamped)
	}

	got, _ := s.Get(ctx, m.ID)
	if got.WorkingStrength != 1e4 {
		t.Errorf("expected working_strength clamped to 1e4, got %v", got.WorkingStrength)
	}
}
