package engram

import (
	"context"
	"time"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/consolidation"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/events"
	"github.com/rcliao/engram/internal/model"
	"github.com/rcliao/engram/internal/reward"
	"github.com/rcliao/engram/internal/search"
	"github.com/rcliao/engram/internal/store"
)

// AddOptions bundles add()'s optional fields (spec §6.1 add).
type AddOptions struct {
	Type        model.MemoryType
	Importance  *float64 // nil means "use the type's mean importance"
	Source      string
	Tags        []string
	Contradicts string
}

// Add creates a memory and returns its id (spec §3.3 Create).
func (m *Memory) Add(ctx context.Context, content string, opts AddOptions) (string, error) {
	if content == "" {
		return "", errs.New(errs.InvalidArgument, "add", "content must not be empty", nil)
	}
	memType, err := validateType(opts.Type)
	if err != nil {
		return "", err
	}

	importance := model.DefaultImportance(memType)
	if opts.Importance != nil {
		if *opts.Importance < 0 || *opts.Importance > 1 {
			return "", errs.New(errs.InvalidArgument, "add", "importance must be in [0,1]", nil)
		}
		importance = *opts.Importance
	}

	if opts.Contradicts != "" {
		if _, err := m.store.Get(ctx, opts.Contradicts); err != nil {
			return "", err
		}
	}

	now := m.now()
	coreSeed := 0.0
	if importance >= m.cfg.Consolidation.CoreSeedFloor {
		coreSeed = m.cfg.Consolidation.CoreSeedAmount
	}

	mem, err := m.store.Add(ctx, store.AddParams{
		Content:         content,
		MemoryType:      memType,
		Importance:      importance,
		WorkingStrength: model.DefaultWorkingStrength(memType),
		CoreStrength:    coreSeed,
		Stability:       model.DefaultStability(memType),
		Source:          opts.Source,
		Tags:            opts.Tags,
		Contradicts:     opts.Contradicts,
		Entities:        m.extractor.Extract(content),
		Now:             now,
	})
	if err != nil {
		return "", err
	}

	if opts.Contradicts != "" {
		if err := m.store.SetContradiction(ctx, opts.Contradicts, mem.ID); err != nil {
			return "", err
		}
	}

	m.metrics.MemoriesAdded.Inc()
	return mem.ID, nil
}

// beta is the per-retrieval stability growth factor (spec §3.3 Mutate,
// "multiplies stability by (1 + beta), beta≈0.1").
const beta = 0.1

// Recall runs the hybrid search pipeline and applies its side effects:
// an AccessRecord per result, stability growth, and Hebbian co-activation
// bookkeeping (spec §4.7).
func (m *Memory) Recall(ctx context.Context, query string, opts RecallOptions) ([]Result, error) {
	start := time.Now()
	defer func() { m.metrics.RecallDuration.Observe(time.Since(start).Seconds()) }()
	now := m.now()
	results, err := search.Run(ctx, m.store, search.Options{
		Query:         query,
		Limit:         opts.Limit,
		Context:       opts.Context,
		Types:         opts.Types,
		Layers:        opts.Layers,
		MinConfidence: opts.MinConfidence,
		TimeFrom:      opts.TimeFrom,
		TimeTo:        opts.TimeTo,
		GraphExpand:   opts.GraphExpand,
	}, m.cfg, now)
	if err != nil {
		return nil, err
	}

	m.metrics.RecallTotal.Inc()
	m.metrics.RecallCandidates.Observe(float64(len(results)))

	if len(results) == 0 {
		return results, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	formed, err := m.store.RecordRetrievals(ctx, ids, now, beta, m.cfg.Hebbian)
	if err != nil {
		return nil, err
	}
	for _, f := range formed {
		m.observer.OnLinkFormed(events.NewLinkFormedEvent(f.SourceID, f.TargetID, now))
		m.metrics.HebbianLinksFormed.Inc()
	}

	m.session.Activate(ids)
	return results, nil
}

// Consolidate runs one sleep cycle (spec §4.5).
func (m *Memory) Consolidate(ctx context.Context, days float64) (consolidation.Summary, error) {
	if days < 0 {
		return consolidation.Summary{}, errs.New(errs.InvalidArgument, "consolidate", "days must be >= 0", nil)
	}
	now := m.now()
	start := time.Now()
	summary, err := m.store.Consolidate(ctx, days, m.cfg.Consolidation, m.cfg.Hebbian, m.cfg.Downscale.Factor, now, m.rng)
	if err != nil {
		return consolidation.Summary{}, err
	}
	m.metrics.ConsolidationDuration.Observe(time.Since(start).Seconds())
	m.metrics.ConsolidationRuns.Inc()
	if summary.Demoted > 0 {
		m.metrics.Promotions.WithLabelValues(string(model.LayerWorking)).Add(float64(summary.Demoted))
	}
	if summary.Promoted > 0 {
		m.metrics.Promotions.WithLabelValues(string(model.LayerCore)).Add(float64(summary.Promoted))
	}
	if summary.Archived > 0 {
		m.metrics.Promotions.WithLabelValues(string(model.LayerArchive)).Add(float64(summary.Archived))
		m.metrics.ArchivedTotal.Add(float64(summary.Archived))
	}
	return summary, nil
}

// Forget hard-deletes a single memory by id. Pinned memories are never
// deleted (spec invariant 5); attempting to forget one is a Conflict.
func (m *Memory) Forget(ctx context.Context, id string) error {
	mem, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if mem.Pinned {
		return errs.New(errs.Conflict, "forget", "memory is pinned: "+id, nil)
	}
	return m.store.Delete(ctx, id)
}

// ForgetBelowThreshold deletes every unpinned memory whose effective
// strength is below threshold (spec §4.2, default 0.01).
func (m *Memory) ForgetBelowThreshold(ctx context.Context, threshold float64) (int, error) {
	if threshold <= 0 {
		threshold = m.cfg.Forgetting.PruneThreshold
	}
	count, err := m.store.ForgetBelowThreshold(ctx, m.now(), threshold)
	if err != nil {
		return 0, err
	}
	m.metrics.ForgottenTotal.Add(float64(count))
	return count, nil
}

// RewardText classifies free-text feedback and applies it to the most
// recently accessed memories (spec §4.4).
func (m *Memory) RewardText(ctx context.Context, feedback string) (int, error) {
	return m.RewardScore(ctx, reward.ClassifyText(feedback))
}

// RewardScore applies a numeric feedback score in [-1, 1] to the most
// recently accessed memories (spec §4.4).
func (m *Memory) RewardScore(ctx context.Context, score float64) (int, error) {
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	count, err := m.store.ApplyReward(ctx, score, m.cfg.Reward)
	if err != nil {
		return 0, err
	}
	m.metrics.RewardApplied.Add(float64(count))

	if score > 0 {
		clamped, err := m.store.ClampWorkingStrength(ctx, m.cfg.Anomaly.MaxWorkingStrength)
		if err != nil {
			return count, err
		}
		now := m.now()
		for _, id := range clamped {
			m.observer.OnAnomaly(events.NewAnomalyEvent(events.AnomalyUnboundedGrowth, id, "working_strength clamped after reward", now))
		}
	}
	return count, nil
}

// Pin exempts a memory from decay, archival, and pruning.
func (m *Memory) Pin(ctx context.Context, id string) error {
	return m.store.SetPinned(ctx, id, true)
}

// Unpin removes a memory's pin.
func (m *Memory) Unpin(ctx context.Context, id string) error {
	return m.store.SetPinned(ctx, id, false)
}

// UpdateMemory creates a new memory superseding id, linking the pair via
// contradicts/contradicted_by (spec §4.8). Rejects updating a memory
// that is already contradicted (SPEC_FULL §7 Conflict decision).
func (m *Memory) UpdateMemory(ctx context.Context, id, newContent string) (string, error) {
	old, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if old.ContradictedBy != "" {
		return "", errs.New(errs.Conflict, "update_memory", "memory already contradicted: "+id, nil)
	}

	return m.Add(ctx, newContent, AddOptions{
		Type:        old.MemoryType,
		Importance:  &old.Importance,
		Source:      old.Source,
		Tags:        old.Tags,
		Contradicts: old.ID,
	})
}

// Stats summarizes the current memory population (spec §6.1 stats).
func (m *Memory) Stats(ctx context.Context) (store.Stats, error) {
	return m.store.Stats(ctx)
}

// Downscale multiplies every unpinned memory's strengths by factor
// (spec §6.1 downscale, the standalone synaptic-homeostasis operator).
func (m *Memory) Downscale(ctx context.Context, factor float64) (int, error) {
	if factor <= 0 || factor > 1 {
		return 0, errs.New(errs.InvalidArgument, "downscale", "factor must be in (0,1]", nil)
	}
	return m.store.Downscale(ctx, factor)
}

// Export writes every memory to path and returns the byte count written.
func (m *Memory) Export(ctx context.Context, path string) (int64, error) {
	return m.store.Export(ctx, path)
}

// Import loads memories from a file written by Export.
func (m *Memory) Import(ctx context.Context, path string) (int, error) {
	return m.store.Import(ctx, path, m.now())
}

// DefaultConfig exposes config.DefaultConfig at the façade boundary so
// callers can start from it when building a custom Option.
func DefaultConfig() config.MemoryConfig { return config.DefaultConfig() }
