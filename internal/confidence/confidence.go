// Package confidence derives the two-component metacognitive score
// attached to every recalled memory (spec §4.6): a stable reliability and
// a decaying salience, combined into a labeled composite.
package confidence

import (
	"math"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

// Reliability returns the type's baseline reliability, attenuated when
// the memory has been contradicted.
func Reliability(m model.Memory, cfg config.ConfidenceConfig) float64 {
	r, ok := cfg.DefaultReliability[string(m.MemoryType)]
	if !ok {
		r = 0.5
	}
	if m.ContradictedBy != "" {
		r *= cfg.ContradictedFactor
	}
	return r
}

// Salience is a logistic squashing of effective strength around 0.5.
func Salience(effectiveStrength, k float64) float64 {
	return 1.0 / (1.0 + math.Exp(-k*(effectiveStrength-0.5)))
}

// Label buckets a composite score into a coarse confidence band.
func Label(score float64, cfg config.ConfidenceConfig) string {
	switch {
	case score >= cfg.CertainBand:
		return "certain"
	case score >= cfg.LikelyBand:
		return "likely"
	case score >= cfg.UncertainBand:
		return "uncertain"
	default:
		return "vague"
	}
}

// Composite returns the weighted reliability/salience score and its label.
func Composite(m model.Memory, effectiveStrength float64, cfg config.ConfidenceConfig) (float64, string) {
	rel := Reliability(m, cfg)
	sal := Salience(effectiveStrength, cfg.SalienceK)
	score := cfg.ReliabilityWeight*rel + cfg.SalienceWeight*sal
	return score, Label(score, cfg)
}
