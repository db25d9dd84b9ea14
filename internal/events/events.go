// Package events defines small in-process value types emitted by the
// engine: link-formed events from Hebbian co-activation during recall,
// and anomaly events from the working-strength clamp applied after a
// reward. They are never persisted; a caller-supplied observer can use
// them for logging or metrics.
package events

import "github.com/google/uuid"

// LinkFormedEvent is emitted the moment a Hebbian pair crosses the
// formation threshold (see internal/hebbian).
type LinkFormedEvent struct {
	ID        uuid.UUID
	SourceID  string
	TargetID  string
	FormedAt  float64
}

// NewLinkFormedEvent stamps a fresh event id.
func NewLinkFormedEvent(sourceID, targetID string, formedAt float64) LinkFormedEvent {
	return LinkFormedEvent{ID: uuid.New(), SourceID: sourceID, TargetID: targetID, FormedAt: formedAt}
}

// AnomalyKind classifies an AnomalyEvent.
type AnomalyKind string

const (
	// AnomalyUnboundedGrowth fires when a positive reward has pushed a
	// memory's working_strength past the configured anomaly cap and the
	// value has been clamped to it.
	AnomalyUnboundedGrowth AnomalyKind = "unbounded_growth"
)

// AnomalyEvent is emitted when a safety valve (e.g. the working-strength
// cap) engages.
type AnomalyEvent struct {
	ID       uuid.UUID
	Kind     AnomalyKind
	MemoryID string
	Detail   string
	At       float64
}

// NewAnomalyEvent stamps a fresh event id.
func NewAnomalyEvent(kind AnomalyKind, memoryID, detail string, at float64) AnomalyEvent {
	return AnomalyEvent{ID: uuid.New(), Kind: kind, MemoryID: memoryID, Detail: detail, At: at}
}

// Observer receives events emitted by the engine. Both methods are
// optional from the caller's perspective — NopObserver implements both as
// no-ops and is the façade's default.
type Observer interface {
	OnLinkFormed(LinkFormedEvent)
	OnAnomaly(AnomalyEvent)
}

// NopObserver discards every event. It is the default observer so the
// engine functions without any injected capability.
type NopObserver struct{}

func (NopObserver) OnLinkFormed(LinkFormedEvent) {}
func (NopObserver) OnAnomaly(AnomalyEvent)       {}
