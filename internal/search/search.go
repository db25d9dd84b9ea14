// Package search orchestrates the hybrid recall pipeline (spec §4.7):
// lexical candidate generation, filtering, graph expansion over entities
// and Hebbian neighbors, activation scoring, confidence filtering, and
// ranking. It is read-only — the façade is responsible for recall's
// side effects (access-record appends and co-activation bookkeeping)
// once a pipeline run picks its winners.
package search

import (
	"context"
	"sort"

	"github.com/rcliao/engram/internal/activation"
	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/confidence"
	"github.com/rcliao/engram/internal/forgetting"
	"github.com/rcliao/engram/internal/model"
	"github.com/rcliao/engram/internal/store"
)

// Store is the slice of *store.Store the pipeline needs, kept narrow so
// this package can be tested against a fake.
type Store interface {
	List(ctx context.Context, filter store.ListFilter) ([]model.Memory, error)
	LexicalSearch(ctx context.Context, query string, limit int) ([]string, error)
	ExpandEntities(ctx context.Context, entities []string) ([]string, error)
	Neighbors(ctx context.Context, id string) ([]string, error)
	AccessTimes(ctx context.Context, memoryID string) ([]float64, error)
}

// Options bundles recall's inputs (spec §6.1 recall).
type Options struct {
	Query         string
	Limit         int
	Context       []string
	Types         []model.MemoryType
	Layers        []model.Layer
	MinConfidence float64
	TimeFrom      float64
	TimeTo        float64
	GraphExpand   bool
}

// Result is the fixed-field record recall returns per memory (spec §6.1
// "Result record fields"), deliberately not an open map (spec §9).
type Result struct {
	ID              string
	Content         string
	MemoryType      model.MemoryType
	Layer           model.Layer
	Importance      float64
	Activation      float64
	Strength        float64
	Confidence      float64
	ConfidenceLabel string
	AgeDays         float64
}

const lexicalCandidateLimit = 100

// Run executes the full pipeline and returns ranked results, truncated to
// opts.Limit (default 5). now is epoch seconds (spec §8 tests inject a
// fake clock via the façade, which flows down to here).
func Run(ctx context.Context, st Store, opts Options, cfg config.MemoryConfig, now float64) ([]Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	filter := store.ListFilter{
		Types:    opts.Types,
		Layers:   opts.Layers,
		TimeFrom: opts.TimeFrom,
		TimeTo:   opts.TimeTo,
	}

	lexicalHit := map[string]bool{}
	var candidates []model.Memory
	var err error

	if opts.Query != "" {
		ids, lerr := st.LexicalSearch(ctx, opts.Query, lexicalCandidateLimit)
		if lerr != nil {
			return nil, lerr
		}
		for _, id := range ids {
			lexicalHit[id] = true
		}
		if len(ids) == 0 {
			// No lexical hits: spec §4.7 step 1 falls back to "take all
			// memories", without the lexical relevance bonus since nothing
			// actually matched.
			candidates, err = st.List(ctx, filter)
		} else {
			idFilter := filter
			idFilter.IDs = ids
			candidates, err = st.List(ctx, idFilter)
		}
	} else {
		candidates, err = st.List(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	if opts.GraphExpand && len(candidates) > 0 {
		candidates, err = expand(ctx, st, candidates, filter)
		if err != nil {
			return nil, err
		}
	}

	var results []Result
	for _, m := range candidates {
		accessTimes, err := st.AccessTimes(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		score := activation.Score(m, accessTimes, activation.Params{Now: now, Context: opts.Context, Config: cfg.Activation})
		if activation.Filtered(score, cfg.Activation) {
			continue
		}
		if cfg.HardContradiction && m.ContradictedBy != "" {
			continue
		}
		if lexicalHit[m.ID] {
			score += 0.5
		}

		effStrength := forgetting.EffectiveStrength(m, now)
		conf, label := confidence.Composite(m, effStrength, cfg.Confidence)
		if conf < opts.MinConfidence {
			continue
		}

		results = append(results, Result{
			ID:              m.ID,
			Content:         m.Content,
			MemoryType:      m.MemoryType,
			Layer:           m.Layer,
			Importance:      m.Importance,
			Activation:      score,
			Strength:        effStrength,
			Confidence:      conf,
			ConfidenceLabel: label,
			AgeDays:         (now - m.CreatedAt) / 86400,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Activation > results[j].Activation })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// expand folds in entity-adjacent memories and Hebbian neighbors of the
// current candidate set, then reapplies the type/layer/time filters
// (spec §4.7 step 3).
func expand(ctx context.Context, st Store, candidates []model.Memory, filter store.ListFilter) ([]model.Memory, error) {
	ids := make(map[string]bool, len(candidates))
	var entities []string
	for _, m := range candidates {
		ids[m.ID] = true
		entities = append(entities, m.Entities...)
	}

	if len(entities) > 0 {
		entityIDs, err := st.ExpandEntities(ctx, entities)
		if err != nil {
			return nil, err
		}
		for _, id := range entityIDs {
			ids[id] = true
		}
	}

	for _, m := range candidates {
		neighbors, err := st.Neighbors(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			ids[n] = true
		}
	}

	idList := make([]string, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}

	expandedFilter := filter
	expandedFilter.IDs = idList
	return st.List(ctx, expandedFilter)
}
