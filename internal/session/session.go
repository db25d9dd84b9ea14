// Package session implements a bounded, time-decaying cache of recently
// activated memory ids (spec §4.9), grounded in the reference
// implementation's session-level working-memory helper: Miller's-law
// capacity plus Baddeley-style time decay. It is pure in-process
// bookkeeping — nothing here touches the store or persists across
// process restarts.
package session

import (
	"sort"

	"github.com/rcliao/engram/internal/config"
)

// WorkingMemory tracks the last-activation time of a bounded set of
// memory ids. It is not safe for concurrent use without external
// synchronization, matching the façade's own re-entrant-but-not-
// thread-safe contract.
type WorkingMemory struct {
	capacity int
	decay    float64
	items    map[string]float64 // memory id -> last activated (epoch seconds)
	now      func() float64
}

// New creates a WorkingMemory from the session config section. now
// supplies the current time so tests can inject a fake clock.
func New(cfg config.SessionConfig, now func() float64) *WorkingMemory {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 7
	}
	decay := cfg.DecaySeconds
	if decay <= 0 {
		decay = 300
	}
	return &WorkingMemory{
		capacity: capacity,
		decay:    decay,
		items:    make(map[string]float64),
		now:      now,
	}
}

// Activate records the given ids as just-activated, then prunes.
func (w *WorkingMemory) Activate(ids []string) {
	t := w.now()
	for _, id := range ids {
		if id == "" {
			continue
		}
		w.items[id] = t
	}
	w.prune()
}

// prune removes decayed entries, then trims to capacity keeping the most
// recently activated ids.
func (w *WorkingMemory) prune() {
	t := w.now()
	for id, last := range w.items {
		if t-last >= w.decay {
			delete(w.items, id)
		}
	}
	if len(w.items) <= w.capacity {
		return
	}

	type entry struct {
		id   string
		last float64
	}
	entries := make([]entry, 0, len(w.items))
	for id, last := range w.items {
		entries = append(entries, entry{id, last})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].last > entries[j].last })

	w.items = make(map[string]float64, w.capacity)
	for _, e := range entries[:w.capacity] {
		w.items[e.id] = e.last
	}
}

// ActiveIDs prunes then returns the currently active set. Order is
// unspecified.
func (w *WorkingMemory) ActiveIDs() []string {
	w.prune()
	ids := make([]string, 0, len(w.items))
	for id := range w.items {
		ids = append(ids, id)
	}
	return ids
}

// NeedsRecall reports whether the caller should issue a fresh recall()
// rather than reuse the active set: true unless every currently-active id
// is itself in candidateIDs or is a Hebbian neighbor of one of them (i.e.
// the topic hasn't shifted). An empty active set always needs a recall.
func (w *WorkingMemory) NeedsRecall(candidateIDs []string, hebbianNeighbors func(string) []string) bool {
	active := w.ActiveIDs()
	if len(active) == 0 {
		return true
	}
	candidateSet := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		candidateSet[id] = true
	}

	for _, id := range active {
		if candidateSet[id] {
			continue
		}
		matched := false
		for _, n := range hebbianNeighbors(id) {
			if candidateSet[n] {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
	}
	return false
}
