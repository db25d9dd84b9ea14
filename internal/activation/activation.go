// Package activation computes the ACT-R style composite score used to
// rank recalled memories (spec §4.1). Every function here is pure: given
// a memory snapshot, its access history, and a clock, it returns a
// number. No component in this package touches storage.
package activation

import (
	"math"
	"strings"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/model"
)

// NegInf is the score assigned to a memory filtered out by MinActivation,
// matching the spec's "treated as -infinity" filtering rule.
var NegInf = math.Inf(-1)

// BaseLevel computes ln(Σ (now - t_k + eps)^-d) over the given access
// times, falling back to createdAt when accessTimes is empty.
func BaseLevel(accessTimes []float64, createdAt, now, decay, epsilon float64) float64 {
	times := accessTimes
	if len(times) == 0 {
		times = []float64{createdAt}
	}

	var sum float64
	for _, t := range times {
		age := now - t + epsilon
		if age < epsilon {
			age = epsilon
		}
		sum += math.Pow(age, -decay)
	}
	if sum <= 0 {
		return NegInf
	}
	return math.Log(sum)
}

// ContextScore counts how many of the given keywords appear
// case-insensitively in content or tags, scaled by weight.
func ContextScore(content string, tags []string, keywords []string, weight float64) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lowerContent := strings.ToLower(content)
	lowerTags := make([]string, len(tags))
	for i, t := range tags {
		lowerTags[i] = strings.ToLower(t)
	}

	var hits float64
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(lowerContent, k) {
			hits++
			continue
		}
		for _, tag := range lowerTags {
			if strings.Contains(tag, k) {
				hits++
				break
			}
		}
	}
	return hits * weight
}

// Params bundles the inputs Score needs beyond the memory itself.
type Params struct {
	Now     float64
	Context []string
	Config  config.ActivationConfig
}

// Score computes A(m, Q, t) = B + C + I - contradiction + pin_boost.
func Score(m model.Memory, accessTimes []float64, p Params) float64 {
	cfg := p.Config
	base := BaseLevel(accessTimes, m.CreatedAt, p.Now, cfg.BaseLevelDecay, cfg.Epsilon)
	if math.IsInf(base, -1) {
		return NegInf
	}

	ctx := ContextScore(m.Content, m.Tags, p.Context, cfg.ContextWeight)
	importance := cfg.ImportanceWeight * m.Importance

	score := base + ctx + importance
	if m.ContradictedBy != "" {
		score -= cfg.ContradictionPenalty
	}
	if m.Pinned {
		score += cfg.PinBoost
	}
	return score
}

// Filtered reports whether score falls below the configured floor and
// should be dropped from recall candidates.
func Filtered(score float64, cfg config.ActivationConfig) bool {
	return math.IsInf(score, -1) || score < cfg.MinActivation
}
