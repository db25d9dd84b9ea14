// Package config defines the engine's tunable parameters, grouped into
// thematic sections mirroring the component design, plus a handful of
// named presets.
package config

// ActivationConfig tunes the ACT-R style activation score (§4.1).
type ActivationConfig struct {
	BaseLevelDecay  float64 // d in (t - t_k + eps)^-d
	Epsilon         float64 // floor to keep base-level finite near t=now
	ContextWeight   float64
	ImportanceWeight float64
	ContradictionPenalty float64
	PinBoost        float64
	MinActivation   float64
}

// ForgettingConfig tunes the Ebbinghaus retrievability model (§4.2).
type ForgettingConfig struct {
	PruneThreshold float64
}

// ConsolidationConfig tunes the sleep cycle (§4.5).
type ConsolidationConfig struct {
	WorkingDecayRate        float64 // mu1
	TransferRate            float64 // alpha
	CoreDecayRate           float64 // mu2
	ImportanceFloor         float64
	InterleaveRatio         float64
	ReplayBoost             float64
	PromoteThreshold        float64
	DemoteThreshold         float64
	ArchiveThreshold        float64

	// CoreSeedFloor/CoreSeedAmount seed a freshly created memory's
	// core_strength (spec §3.3 Create: "core_strength = 0 unless
	// importance >= a configured floor in which case a small seed is
	// added") rather than waiting for the first consolidate() cycle to
	// transfer any mass at all.
	CoreSeedFloor  float64
	CoreSeedAmount float64
}

// ConfidenceConfig tunes the composite reliability/salience score (§4.6).
type ConfidenceConfig struct {
	DefaultReliability map[string]float64
	SalienceK          float64
	ReliabilityWeight  float64
	SalienceWeight     float64
	ContradictedFactor float64
	CertainBand        float64
	LikelyBand         float64
	UncertainBand      float64
}

// RewardConfig tunes reward-driven reinforcement (§4.4).
type RewardConfig struct {
	WindowSize         int
	PositionDecay      float64 // gamma
	RewardMagnitude    float64
	StrengthBoost      float64
	SuppressionFactor  float64
}

// DownscaleConfig tunes the homeostatic downscaling operator (§4.5 step 7).
type DownscaleConfig struct {
	Factor float64
}

// HebbianConfig tunes co-activation bookkeeping and link dynamics (§4.3).
type HebbianConfig struct {
	Enabled          bool
	FormThreshold    int
	DecayFactor      float64
	PruneBelow       float64
	ReinforceBoost   float64 // re-strengthen amount on repeat co-activation of a formed link
	StrengthCap      float64
}

// AnomalyConfig bounds runaway growth introduced by repeated reward calls
// (see S6); the façade clamps working_strength to this cap after reward
// application as a last-resort safety valve ahead of the next consolidate.
type AnomalyConfig struct {
	MaxWorkingStrength float64
}

// SessionConfig tunes the session working-memory cache (§4.9).
type SessionConfig struct {
	Capacity     int
	DecaySeconds float64
}

// MemoryConfig groups every tunable section. The façade holds one of
// these by value; two engines in the same process may diverge freely.
type MemoryConfig struct {
	Activation   ActivationConfig
	Forgetting   ForgettingConfig
	Consolidation ConsolidationConfig
	Confidence   ConfidenceConfig
	Reward       RewardConfig
	Downscale    DownscaleConfig
	Hebbian      HebbianConfig
	Anomaly      AnomalyConfig
	Session      SessionConfig

	// HardContradiction, when true, excludes contradicted memories from
	// recall candidates entirely instead of only attenuating reliability
	// (resolves the spec's soft-vs-hard contradiction open question).
	HardContradiction bool
}

// DefaultConfig returns the baseline configuration with every constant at
// its documented default.
func DefaultConfig() MemoryConfig {
	return MemoryConfig{
		Activation: ActivationConfig{
			BaseLevelDecay:       0.5,
			Epsilon:              1e-3,
			ContextWeight:        1.5,
			ImportanceWeight:     0.5,
			ContradictionPenalty: 3.0,
			PinBoost:             1.0,
			MinActivation:        -10.0,
		},
		Forgetting: ForgettingConfig{
			PruneThreshold: 0.01,
		},
		Consolidation: ConsolidationConfig{
			WorkingDecayRate: 0.15,
			TransferRate:     0.08,
			CoreDecayRate:    0.005,
			ImportanceFloor:  0.1,
			InterleaveRatio:  0.3,
			ReplayBoost:      0.01,
			PromoteThreshold: 0.25,
			DemoteThreshold:  0.05,
			ArchiveThreshold: 0.15,
			CoreSeedFloor:    0.7,
			CoreSeedAmount:   0.1,
		},
		Confidence: ConfidenceConfig{
			DefaultReliability: map[string]float64{
				"factual":    0.85,
				"episodic":   0.90,
				"relational": 0.75,
				"emotional":  0.95,
				"procedural": 0.90,
				"opinion":    0.60,
			},
			SalienceK:          2.0,
			ReliabilityWeight:  0.7,
			SalienceWeight:     0.3,
			ContradictedFactor: 0.3,
			CertainBand:        0.75,
			LikelyBand:         0.5,
			UncertainBand:      0.25,
		},
		Reward: RewardConfig{
			WindowSize:        3,
			PositionDecay:     0.5,
			RewardMagnitude:   0.3,
			StrengthBoost:     0.2,
			SuppressionFactor: 0.3,
		},
		Downscale: DownscaleConfig{
			Factor: 0.95,
		},
		Hebbian: HebbianConfig{
			Enabled:        true,
			FormThreshold:  3,
			DecayFactor:    0.95,
			PruneBelow:     0.1,
			ReinforceBoost: 0.1,
			StrengthCap:    2.0,
		},
		Anomaly: AnomalyConfig{
			MaxWorkingStrength: 1e4,
		},
		Session: SessionConfig{
			Capacity:     7,
			DecaySeconds: 300,
		},
	}
}

// Preset names recognized by WithPreset.
const (
	PresetChatbot           = "chatbot"
	PresetTaskAgent          = "task-agent"
	PresetPersonalAssistant = "personal-assistant"
	PresetResearcher        = "researcher"
)

// WithPreset returns DefaultConfig with a named preset's overrides
// applied. Unknown names return the default unchanged.
func WithPreset(name string) MemoryConfig {
	c := DefaultConfig()
	switch name {
	case PresetChatbot:
		// Chatbots favor fast working-memory churn and forgiving pruning:
		// short conversations, little reason to keep marginal traces.
		c.Consolidation.WorkingDecayRate = 0.25
		c.Forgetting.PruneThreshold = 0.02
		c.Session.DecaySeconds = 120
	case PresetTaskAgent:
		// Task agents care about procedural reliability and fast Hebbian
		// linking between steps of the same task.
		c.Hebbian.FormThreshold = 2
		c.Consolidation.TransferRate = 0.12
		c.Confidence.ReliabilityWeight = 0.8
	case PresetPersonalAssistant:
		// Long-lived, importance-weighted retention; slow core decay.
		c.Consolidation.CoreDecayRate = 0.002
		c.Consolidation.ImportanceFloor = 0.2
		c.Session.Capacity = 9
	case PresetResearcher:
		// Wide recall, slower downscaling, more archival headroom before
		// memories are dropped outright.
		c.Downscale.Factor = 0.98
		c.Consolidation.ArchiveThreshold = 0.25
		c.Activation.MinActivation = -15.0
	}
	return c
}
