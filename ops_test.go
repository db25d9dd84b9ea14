package engram

import (
	"context"
	"math"
	"testing"

	"github.com/rcliao/engram/internal/model"
)

// fakeClock lets a test advance "now" deterministically.
type fakeClock struct{ t float64 }

func (c *fakeClock) now() float64   { return c.t }
func (c *fakeClock) advance(d float64) { c.t += d }

func newTestMemory(t *testing.T, clock *fakeClock) *Memory {
	t.Helper()
	m, err := OpenInMemory(WithClock(clock.now))
	if err != nil {
		t.Fatalf("open in-memory: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// S1 (spec.md §8, literal): add A at t=0, add B at t=30d, then at t=30d
// recall("") with limit=2 — B ranks above A purely on creation-time
// recency, with neither memory ever individually recalled before this.
func TestS1RecencyOverStaleness(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	important := 0.5
	a, err := m.Add(ctx, "A", AddOptions{Type: model.TypeFactual, Importance: &important})
	if err != nil {
		t.Fatalf("add A: %v", err)
	}

	clock.advance(30 * 86400)
	b, err := m.Add(ctx, "B", AddOptions{Type: model.TypeFactual, Importance: &important})
	if err != nil {
		t.Fatalf("add B: %v", err)
	}

	results, err := m.Recall(ctx, "", RecallOptions{Limit: 2})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both memories in the result set, got %d", len(results))
	}
	if results[0].ID != b {
		t.Errorf("expected B (%s) to rank above A (%s), got order %+v", b, a, results)
	}
}

// TestS1RecencyOverStalenessTargetedRecall supplements the literal S1
// scenario: a memory that is individually re-recalled also outranks one
// that was never revisited again, once enough time has passed that
// creation-time recency alone would no longer distinguish them.
func TestS1RecencyOverStalenessTargetedRecall(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	stale, err := m.Add(ctx, "the office wifi password is changed quarterly", AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	fresh, err := m.Add(ctx, "the office wifi password is changed quarterly too", AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	clock.advance(3600)
	// Recall specifically for fresh's content to append an access record.
	results, err := m.Recall(ctx, "too", RecallOptions{Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	found := false
	for _, r := range results {
		if r.ID == fresh {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fresh memory %s among recall results, got %+v", fresh, results)
	}

	clock.advance(7 * 86400)
	final, err := m.Recall(ctx, "", RecallOptions{Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(final) < 2 {
		t.Fatalf("expected both memories still recallable, got %d", len(final))
	}
	rank := map[string]int{}
	for i, r := range final {
		rank[r.ID] = i
	}
	if rank[fresh] >= rank[stale] {
		t.Errorf("expected recently-accessed memory %s to outrank stale %s, ranks: %v", fresh, stale, rank)
	}
}

// S2 (spec.md §8, literal): add A (importance 0.95) at t=0, add B
// (importance 0.2) at t=10d, then at t=30d recall("") — A ranks above B
// despite B being more recently created.
func TestS2ImportancePersistence(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	highImportance := 0.95
	a, err := m.Add(ctx, "A", AddOptions{Type: model.TypeFactual, Importance: &highImportance})
	if err != nil {
		t.Fatalf("add A: %v", err)
	}

	clock.advance(10 * 86400)
	lowImportance := 0.2
	b, err := m.Add(ctx, "B", AddOptions{Type: model.TypeFactual, Importance: &lowImportance})
	if err != nil {
		t.Fatalf("add B: %v", err)
	}

	clock.advance(20 * 86400)
	results, err := m.Recall(ctx, "", RecallOptions{Limit: 5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	rank := map[string]int{}
	for i, r := range results {
		rank[r.ID] = i
	}
	aRank, aOK := rank[a]
	bRank, bOK := rank[b]
	if !aOK || !bOK {
		t.Fatalf("expected both A and B in recall results, got %+v", results)
	}
	if aRank >= bRank {
		t.Errorf("expected A (importance 0.95) to rank above B (importance 0.2), ranks: A=%d B=%d", aRank, bRank)
	}
}

// TestS2ImportancePersistenceAcrossConsolidation supplements the literal
// S2 scenario at the consolidation boundary: importance alone should keep
// a memory promoted to core across repeated sleep cycles that a trivial
// memory never earns promotion from.
func TestS2ImportancePersistenceAcrossConsolidation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	important := 0.95
	trivial := 0.05
	keep, err := m.Add(ctx, "the server's root password rotation policy", AddOptions{Type: model.TypeProcedural, Importance: &important})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	drop, err := m.Add(ctx, "today's lunch was mediocre", AddOptions{Type: model.TypeEpisodic, Importance: &trivial})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	clock.advance(30 * 86400)
	for i := 0; i < 10; i++ {
		if _, err := m.Consolidate(ctx, 3); err != nil {
			t.Fatalf("consolidate: %v", err)
		}
	}

	kept, err := m.store.Get(ctx, keep)
	if err != nil {
		t.Errorf("expected important memory to survive consolidation: %v", err)
	} else if kept.Layer != model.LayerCore {
		t.Errorf("expected important memory to stay in core, got layer %s", kept.Layer)
	}
	dropped, err := m.store.Get(ctx, drop)
	if err == nil && dropped.Layer == model.LayerCore {
		t.Errorf("expected trivial memory not promoted to core, got layer %s", dropped.Layer)
	}
}

// S3: Hebbian formation — two memories recalled together repeatedly form
// an associative link.
func TestS3HebbianFormation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	a, _ := m.Add(ctx, "project atlas uses postgres", AddOptions{})
	b, _ := m.Add(ctx, "project atlas deploys to kubernetes", AddOptions{})

	for i := 0; i < 4; i++ {
		clock.advance(60)
		if _, err := m.Recall(ctx, "atlas", RecallOptions{Limit: 5}); err != nil {
			t.Fatalf("recall: %v", err)
		}
	}

	neighbors, err := m.store.Neighbors(ctx, a)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	found := false
	for _, n := range neighbors {
		if n == b {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a Hebbian link to form between %s and %s after repeated co-retrieval, neighbors: %v", a, b, neighbors)
	}
}

// S4: contradiction attenuation — update_memory lowers the old memory's
// confidence rather than deleting it.
func TestS4ContradictionAttenuation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	old, err := m.Add(ctx, "the meeting is on Tuesday", AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	newer, err := m.UpdateMemory(ctx, old, "the meeting is on Wednesday")
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := m.store.Get(ctx, old)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContradictedBy != newer {
		t.Errorf("expected old memory's contradicted_by to be %s, got %q", newer, got.ContradictedBy)
	}

	if _, err := m.UpdateMemory(ctx, old, "the meeting is on Thursday"); err == nil {
		t.Error("expected Conflict updating an already-contradicted memory")
	}
}

// S5: pin exemption — a pinned memory survives both forgetting and
// consolidation's archival path regardless of strength.
func TestS5PinExemption(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	trivial := 0.01
	id, err := m.Add(ctx, "a throwaway note", AddOptions{Type: model.TypeEpisodic, Importance: &trivial})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Pin(ctx, id); err != nil {
		t.Fatalf("pin: %v", err)
	}

	clock.advance(365 * 86400)
	for i := 0; i < 5; i++ {
		m.Consolidate(ctx, 30)
	}
	if _, err := m.ForgetBelowThreshold(ctx, 0.5); err != nil {
		t.Fatalf("forget below threshold: %v", err)
	}

	got, err := m.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("expected pinned memory to survive: %v", err)
	}
	if !got.Pinned {
		t.Error("expected pin to remain set")
	}
}

// S6 (spec.md §8, literal): add one memory, call reward("great!") 1000
// times, then consolidate(days=1.0) — working_strength stays finite and
// bounded by the documented cap, exercising the anomaly clamp together
// with consolidation's own downscale/decay path rather than the clamp in
// isolation.
func TestS6DownscaleBoundedRewardLoop(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, clock)

	id, err := m.Add(ctx, "the user prefers dark mode", AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for i := 0; i < 1000; i++ {
		if _, err := m.RewardText(ctx, "great!"); err != nil {
			t.Fatalf("reward: %v", err)
		}
	}

	clock.advance(86400)
	if _, err := m.Consolidate(ctx, 1.0); err != nil {
		t.Fatalf("consolidate: %v", err)
	}

	got, err := m.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if math.IsInf(got.WorkingStrength, 0) || math.IsNaN(got.WorkingStrength) {
		t.Fatalf("expected working_strength to stay finite, got %v", got.WorkingStrength)
	}
	if got.WorkingStrength > m.cfg.Anomaly.MaxWorkingStrength {
		t.Errorf("expected working_strength bounded by the anomaly cap, got %v", got.WorkingStrength)
	}
}

func TestAddRejectsEmptyContent(t *testing.T) {
	clock := &fakeClock{t: 0}
	m := newTestMemory(t, &fakeClock{t: clock.t})
	if _, err := m.Add(context.Background(), "", AddOptions{}); err == nil {
		t.Error("expected error adding empty content")
	}
}

func TestAddRejectsUnknownType(t *testing.T) {
	m := newTestMemory(t, &fakeClock{t: 0})
	_, err := m.Add(context.Background(), "hello", AddOptions{Type: model.MemoryType("bogus")})
	if err == nil {
		t.Error("expected error adding an unknown memory type")
	}
}

func TestForgetRejectsPinned(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, &fakeClock{t: 0})
	id, _ := m.Add(ctx, "keep me", AddOptions{})
	m.Pin(ctx, id)
	if err := m.Forget(ctx, id); err == nil {
		t.Error("expected error forgetting a pinned memory by id")
	}
}
