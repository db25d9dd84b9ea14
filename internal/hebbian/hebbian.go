// Package hebbian implements the co-activation bookkeeping and link
// dynamics described in spec §4.3. The transition logic is pure — it
// takes the current link state (or its absence) and returns the next
// state — so internal/store can wrap it in a single transaction without
// duplicating the "neurons that fire together, wire together" rules.
package hebbian

import (
	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

// Transition is the outcome of one co-activation event between a pair.
type Transition struct {
	Link      model.HebbianLink
	Formed    bool // true exactly on the call that crosses the threshold
	Reinforced bool // true when an already-formed link was re-strengthened
}

// OnCoactivation advances a pair's state by one co-activation. existing
// is nil when the pair has never co-activated before.
func OnCoactivation(existing *model.HebbianLink, source, target string, cfg config.HebbianConfig) Transition {
	if existing == nil {
		existing = &model.HebbianLink{SourceID: source, TargetID: target}
	}

	if existing.Strength > 0 {
		// Already formed: use-it-or-lose-it reinforcement, capped at 1.0
		// (distinct from the larger 2.0 cap on explicit Strengthen calls).
		newStrength := existing.Strength + cfg.ReinforceBoost
		if newStrength > 1.0 {
			newStrength = 1.0
		}
		return Transition{
			Link: model.HebbianLink{
				SourceID:          source,
				TargetID:          target,
				Strength:          newStrength,
				CoactivationCount: existing.CoactivationCount + 1,
			},
			Reinforced: true,
		}
	}

	// Tracking phase: bump the count and check the formation threshold.
	count := existing.CoactivationCount + 1
	if count >= cfg.FormThreshold {
		return Transition{
			Link: model.HebbianLink{
				SourceID:          source,
				TargetID:          target,
				Strength:          1.0,
				CoactivationCount: count,
			},
			Formed: true,
		}
	}
	return Transition{
		Link: model.HebbianLink{
			SourceID:          source,
			TargetID:          target,
			Strength:          0,
			CoactivationCount: count,
		},
	}
}

// Strengthen applies an explicit boost to a formed link, capped at
// cfg.StrengthCap. Calling it on an unformed (strength == 0) link is a
// no-op — strengthen() only affects existing links per spec §4.3.
func Strengthen(link model.HebbianLink, boost float64, cfg config.HebbianConfig) model.HebbianLink {
	if link.Strength <= 0 {
		return link
	}
	link.Strength += boost
	if link.Strength > cfg.StrengthCap {
		link.Strength = cfg.StrengthCap
	}
	return link
}

// DecayResult is the outcome of one decay pass over a link.
type DecayResult struct {
	Link  model.HebbianLink
	Prune bool
}

// Decay multiplies a formed link's strength by factor and reports whether
// it fell below the prune floor. Tracking rows (strength == 0) pass
// through untouched, matching the reference decay's "tracking rows are
// untouched" rule.
func Decay(link model.HebbianLink, factor, pruneBelow float64) DecayResult {
	if link.Strength <= 0 {
		return DecayResult{Link: link}
	}
	link.Strength *= factor
	if link.Strength < pruneBelow {
		return DecayResult{Link: link, Prune: true}
	}
	return DecayResult{Link: link}
}

// Pairs returns every canonical (a, b) pair from a set of ids, dropping
// self-pairs and duplicate ids in the input batch.
func Pairs(ids []string) [][2]string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	var pairs [][2]string
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			a, b := model.CanonicalPair(unique[i], unique[j])
			pairs = append(pairs, [2]string{a, b})
		}
	}
	return pairs
}
