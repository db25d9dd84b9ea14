// Package engram is the memory façade: the public API external
// collaborators (CLI, tool-server glue, LLM prompting code) call to
// add, recall, and reshape memories. It holds configuration and wires
// the storage layer to the pure activation, forgetting, confidence,
// Hebbian, consolidation, and reward components (spec §2 "Memory
// façade"). The façade is re-entrant but not itself thread-safe;
// callers serialize access the same way the reference CLI opens one
// store handle per invocation.
package engram

import (
	"math/rand"
	"time"

	"github.com/rcliao/engram/internal/config"
	"github.com/rcliao/engram/internal/entity"
	"github.com/rcliao/engram/internal/errs"
	"github.com/rcliao/engram/internal/events"
	"github.com/rcliao/engram/internal/metrics"
	"github.com/rcliao/engram/internal/model"
	"github.com/rcliao/engram/internal/search"
	"github.com/rcliao/engram/internal/session"
	"github.com/rcliao/engram/internal/store"
)

// Result is recall's per-memory output record (spec §6.1); re-exported
// from internal/search so callers never import an internal package.
type Result = search.Result

// RecallOptions mirrors search.Options at the public boundary.
type RecallOptions struct {
	Limit         int
	Context       []string
	Types         []model.MemoryType
	Layers        []model.Layer
	MinConfidence float64
	TimeFrom      float64
	TimeTo        float64
	// GraphExpand adds entity and Hebbian-neighbor expansion to the
	// candidate set. The zero value (false) runs recall without expansion.
	GraphExpand bool
}

// Memory is the engine façade. Construct one with Open or OpenInMemory.
type Memory struct {
	store     *store.Store
	cfg       config.MemoryConfig
	extractor entity.Extractor
	observer  events.Observer
	metrics   *metrics.Metrics
	session   *session.WorkingMemory
	now       func() float64
	rng       *rand.Rand
}

// Option customizes a Memory built by Open/OpenInMemory.
type Option func(*Memory)

// WithConfig overrides the default configuration wholesale.
func WithConfig(cfg config.MemoryConfig) Option {
	return func(m *Memory) { m.cfg = cfg }
}

// WithPreset applies one of the four named presets (spec §6.3).
func WithPreset(name string) Option {
	return func(m *Memory) { m.cfg = config.WithPreset(name) }
}

// WithEntityExtractor injects a custom entity-extraction capability.
// Defaults to entity.DefaultExtractor (spec §9 design notes).
func WithEntityExtractor(e entity.Extractor) Option {
	return func(m *Memory) { m.extractor = e }
}

// WithObserver injects an events.Observer for link-formed/anomaly events.
// Defaults to events.NopObserver{}.
func WithObserver(o events.Observer) Option {
	return func(m *Memory) { m.observer = o }
}

// WithClock overrides the façade's notion of "now", used by tests to
// drive deterministic scenarios (spec §8 "a fake clock injected into the
// façade").
func WithClock(now func() float64) Option {
	return func(m *Memory) { m.now = now }
}

// WithMetricsNamespace sets the prometheus namespace for this façade's
// counters (spec §9 Observability). Defaults to "engram".
func WithMetricsNamespace(ns string) Option {
	return func(m *Memory) { m.metrics = metrics.New(ns) }
}

// WithSeed fixes the façade's random source, used by consolidation's
// replay sampling, for reproducible tests.
func WithSeed(seed int64) Option {
	return func(m *Memory) { m.rng = rand.New(rand.NewSource(seed)) }
}

func defaultMemory() *Memory {
	return &Memory{
		cfg:       config.DefaultConfig(),
		extractor: entity.DefaultExtractor,
		observer:  events.NopObserver{},
		metrics:   metrics.New("engram"),
		now:       func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Open creates or opens a database file at dbPath and wires a Memory
// façade around it.
func Open(dbPath string, opts ...Option) (*Memory, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return newMemory(s, opts...), nil
}

// OpenInMemory opens a private, non-persisted database, for tests and
// scratch sessions.
func OpenInMemory(opts ...Option) (*Memory, error) {
	s, err := store.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return newMemory(s, opts...), nil
}

func newMemory(s *store.Store, opts ...Option) *Memory {
	m := defaultMemory()
	m.store = s
	for _, opt := range opts {
		opt(m)
	}
	if m.session == nil {
		m.session = session.New(m.cfg.Session, m.now)
	}
	return m
}

// Close releases the underlying store handle.
func (m *Memory) Close() error { return m.store.Close() }

// Config returns the façade's current configuration, for callers that
// want to inspect or clone it (spec §9 "two engines ... may hold
// divergent configs").
func (m *Memory) Config() config.MemoryConfig { return m.cfg }

// Session exposes the bounded working-memory cache (spec §4.9) so a
// caller can decide whether to skip a fresh Recall on the same topic.
func (m *Memory) Session() *session.WorkingMemory { return m.session }

func validateType(t model.MemoryType) (model.MemoryType, error) {
	if t == "" {
		return model.TypeFactual, nil
	}
	if !model.ValidTypes[t] {
		return "", errs.New(errs.InvalidArgument, "add", "unknown memory type: "+string(t), nil)
	}
	return t, nil
}
