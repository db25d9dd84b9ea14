// Package forgetting implements the Ebbinghaus retrievability model used
// to compute effective strength (spec §4.2) and the pruning predicate
// used by forget(threshold).
package forgetting

import (
	"math"

	"github.com/rcliao/engram/internal/model"
)

// Retrievability computes R(m, t) = exp(-(t - last_accessed_at) / stability).
// A non-positive stability (which should never occur per invariant 1) is
// treated as an immediate-decay memory to avoid a divide-by-zero.
func Retrievability(lastAccessedAt, now, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	elapsed := now - lastAccessedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Exp(-elapsed / stability)
}

// EffectiveStrength is max(working_strength, core_strength) * R, the
// value used both for layer classification and the "strength" field
// surfaced to callers.
func EffectiveStrength(m model.Memory, now float64) float64 {
	strength := m.WorkingStrength
	if m.CoreStrength > strength {
		strength = m.CoreStrength
	}
	return strength * Retrievability(m.LastAccessedAt, now, m.Stability)
}

// ShouldPrune reports whether an unpinned memory's effective strength has
// fallen below threshold. Pinned memories are never pruned regardless of
// strength (invariant 5).
func ShouldPrune(m model.Memory, now, threshold float64) bool {
	if m.Pinned {
		return false
	}
	return EffectiveStrength(m, now) < threshold
}
