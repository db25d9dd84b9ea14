// Package reward implements the signed modulation applied to recently
// accessed memories (spec §4.4). Text feedback is classified into a
// polarity before the per-position weighting is applied; a numeric score
// is used directly.
package reward

import (
	"math"
	"strings"

	"github.com/rcliao/engram/internal/config"
)

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "correct": true,
	"perfect": true, "yes": true, "helpful": true, "thanks": true,
	"nice": true, "right": true, "love": true, "awesome": true,
}

var negativeWords = map[string]bool{
	"bad": true, "wrong": true, "incorrect": true, "no": true,
	"unhelpful": true, "useless": true, "hate": true, "terrible": true,
	"awful": true, "false": true, "never": true,
}

// ClassifyText scores free-text feedback into [-1, 1] using a simple
// keyword heuristic: each positive/negative hit contributes +-1, averaged
// and clamped.
func ClassifyText(feedback string) float64 {
	words := strings.Fields(strings.ToLower(feedback))
	if len(words) == 0 {
		return 0
	}
	var score float64
	var hits int
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		if positiveWords[w] {
			score++
			hits++
		} else if negativeWords[w] {
			score--
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	avg := score / float64(hits)
	if avg > 1 {
		avg = 1
	}
	if avg < -1 {
		avg = -1
	}
	return avg
}

// PositionWeight returns w_k = gamma^k for position k (0 = oldest in the
// reward window).
func PositionWeight(gamma float64, k int) float64 {
	return math.Pow(gamma, float64(k))
}

// Delta describes the strength/stability adjustment reward() applies to
// one memory in the recency window.
type Delta struct {
	WorkingStrengthDelta float64 // additive; 0 when negative polarity
	WorkingStrengthMul   float64 // multiplicative; 1 when positive polarity
	StabilityMul         float64 // multiplicative; 1 when negative polarity
}

// Apply computes the Delta for a memory at window position k (0=oldest)
// given the feedback score and reward config.
func Apply(score float64, k int, cfg config.RewardConfig) Delta {
	w := PositionWeight(cfg.PositionDecay, k)
	if score > 0 {
		return Delta{
			WorkingStrengthDelta: cfg.RewardMagnitude * w * score,
			WorkingStrengthMul:   1,
			StabilityMul:         1 + cfg.StrengthBoost*w*score,
		}
	}
	if score < 0 {
		mag := -score
		return Delta{
			WorkingStrengthDelta: 0,
			WorkingStrengthMul:   1 - cfg.SuppressionFactor*w*mag,
			StabilityMul:         1,
		}
	}
	return Delta{WorkingStrengthMul: 1, StabilityMul: 1}
}
