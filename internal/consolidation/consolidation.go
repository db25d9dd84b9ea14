// Package consolidation implements the per-memory transforms of the
// "sleep" operator (spec §4.5): working decay, transfer into core,
// core decay, replay sampling, layer reclassification, and the
// downscaling step. The orchestrating transaction and the SQL reads that
// produce the inputs below live in internal/store; everything here is a
// pure function over model.Memory values so it can be tested without a
// database.
package consolidation

import (
	"math"
	"math/rand"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

// ReplayBatchSize bounds how many memories are sampled for replay in a
// single cycle. The spec leaves the total replay count unspecified; this
// mirrors a conservative nightly-replay batch rather than touching every
// memory every cycle.
const ReplayBatchSize = 20

// StepDecayTransfer applies working decay, the working->core transfer,
// and core decay to one memory, in that order (§4.5 steps 1-3).
func StepDecayTransfer(m model.Memory, days float64, cfg config.ConsolidationConfig) model.Memory {
	m.WorkingStrength *= math.Exp(-cfg.WorkingDecayRate * days)

	floor := cfg.ImportanceFloor
	effectiveImportance := m.Importance
	if effectiveImportance < floor {
		effectiveImportance = floor
	}
	delta := cfg.TransferRate * days * m.WorkingStrength * effectiveImportance
	if delta > m.WorkingStrength {
		delta = m.WorkingStrength
	}
	m.CoreStrength += delta
	m.WorkingStrength -= delta
	if m.WorkingStrength < 0 {
		m.WorkingStrength = 0
	}

	m.CoreStrength *= math.Exp(-cfg.CoreDecayRate * days)
	return m
}

// ApplyReplayBoost bumps a sampled memory's core_strength (§4.5 step 4).
// The caller is responsible for appending the synthetic AccessRecord.
func ApplyReplayBoost(m model.Memory, cfg config.ConsolidationConfig) model.Memory {
	m.CoreStrength += cfg.ReplayBoost
	return m
}

// ClassifyLayer derives the materialized layer from a memory's current
// strengths and pin status (§4.5 step 5).
func ClassifyLayer(m model.Memory, cfg config.ConsolidationConfig) model.Layer {
	if m.Pinned || m.CoreStrength >= cfg.PromoteThreshold {
		return model.LayerCore
	}
	if m.CoreStrength <= cfg.DemoteThreshold && m.WorkingStrength <= cfg.ArchiveThreshold {
		return model.LayerArchive
	}
	return model.LayerWorking
}

// Downscale multiplies both strengths of an unpinned memory by factor
// (§4.5 step 7 / the standalone downscale() operation). Pinned memories
// pass through unchanged.
func Downscale(m model.Memory, factor float64) model.Memory {
	if m.Pinned {
		return m
	}
	m.WorkingStrength *= factor
	m.CoreStrength *= factor
	return m
}

// WeightedID pairs a memory id with the importance weight used for
// weighted replay sampling of older memories.
type WeightedID struct {
	ID         string
	Importance float64
}

// SelectReplaySample picks which memories get a replay boost this cycle:
// interleaveRatio of the batch comes from recentIDs (uniform sample), the
// remainder is drawn from olderPool without replacement, weighted by
// importance (roulette-wheel selection) so consistently important older
// memories are more likely to be touched.
func SelectReplaySample(recentIDs []string, olderPool []WeightedID, interleaveRatio float64, rng *rand.Rand) []string {
	total := ReplayBatchSize
	if total > len(recentIDs)+len(olderPool) {
		total = len(recentIDs) + len(olderPool)
	}
	if total == 0 {
		return nil
	}

	nRecent := int(math.Round(interleaveRatio * float64(total)))
	if nRecent > len(recentIDs) {
		nRecent = len(recentIDs)
	}
	nOlder := total - nRecent
	if nOlder > len(olderPool) {
		nOlder = len(olderPool)
	}
	// Reclaim any shortfall from the other pool so the batch still fills
	// when one side is smaller than its share.
	if shortfall := (total - nRecent - nOlder); shortfall > 0 {
		if extra := len(recentIDs) - nRecent; extra > 0 {
			add := extra
			if add > shortfall {
				add = shortfall
			}
			nRecent += add
		}
	}

	result := make([]string, 0, nRecent+nOlder)
	result = append(result, sampleUniform(recentIDs, nRecent, rng)...)
	result = append(result, sampleWeighted(olderPool, nOlder, rng)...)
	return result
}

func sampleUniform(ids []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	shuffled := append([]string(nil), ids...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func sampleWeighted(pool []WeightedID, n int, rng *rand.Rand) []string {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	remaining := append([]WeightedID(nil), pool...)
	result := make([]string, 0, n)

	for len(result) < n && len(remaining) > 0 {
		var total float64
		for _, w := range remaining {
			total += w.Importance + 1e-6 // avoid a zero-weight memory never being picked
		}
		r := rng.Float64() * total
		var cum float64
		idx := len(remaining) - 1
		for i, w := range remaining {
			cum += w.Importance + 1e-6
			if r <= cum {
				idx = i
				break
			}
		}
		result = append(result, remaining[idx].ID)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return result
}

// Summary reports what one consolidate() cycle did, returned to the
// caller as the operation's "summary stats" result (spec §6.1).
type Summary struct {
	Processed int
	Replayed  int
	Promoted  int
	Demoted   int
	Archived  int
}
