package domain

import "time"

// SignalID names one telemetry channel (e.g. "pack_voltage"). IDs come from
// the externally supplied signal table and are stable for the life of a run.
type SignalID string

// Sample is the canonical unit of decoded telemetry: one physical value
// extracted from one bus frame. Immutable after creation.
type Sample struct {
	ID        SignalID
	Value     float64
	Timestamp time.Time
	Seq       uint64
}

// SignalState is the store's view of one signal: the latest accepted sample
// plus liveness bookkeeping. Value semantics; snapshots hand out copies.
type SignalState struct {
	Last       Sample
	LastUpdate time.Time
	Valid      bool
	StaleSince time.Time
}

// HasData reports whether any sample has ever been accepted for the signal.
// At boot every signal is invalid with no data; absence of data must never
// read as a live zero.
func (s SignalState) HasData() bool {
	return !s.LastUpdate.IsZero()
}
