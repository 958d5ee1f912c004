package store

import (
	"sync"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// UpdateResult says what the store did with a sample.
type UpdateResult int

const (
	// Applied means the sample became the signal's latest value.
	Applied UpdateResult = iota
	// SeqRegression means the sample arrived out of order or duplicated and
	// was discarded. Normal bus behaviour, counted for diagnostics only.
	SeqRegression
	// UnknownSignal means the sample's id is not tracked by this store.
	UnknownSignal
)

// Store is the single source of truth for vehicle state: the latest accepted
// sample, update time, and validity flag per tracked signal. It is the only
// shared mutable resource in the core; Update is the sole mutator and every
// reader gets point-in-time copies.
type Store struct {
	mu      sync.RWMutex
	signals map[domain.SignalID]*domain.SignalState

	seqRegressions uint64
}

// New creates a store tracking exactly the given signals. Every signal boots
// invalid with no data so absent telemetry never reads as a live zero.
func New(ids []domain.SignalID) *Store {
	s := &Store{signals: make(map[domain.SignalID]*domain.SignalState, len(ids))}
	for _, id := range ids {
		s.signals[id] = &domain.SignalState{}
	}
	return s
}

// Update applies a sample if its sequence number is newer than the stored
// one. Acceptance restores validity and clears the stale marker. Non-advancing
// sequence numbers are discarded silently: out-of-order delivery must not
// re-age data.
func (s *Store) Update(sample domain.Sample) UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.signals[sample.ID]
	if !ok {
		return UnknownSignal
	}

	if st.HasData() && sample.Seq <= st.Last.Seq {
		s.seqRegressions++
		return SeqRegression
	}

	st.Last = sample
	st.LastUpdate = sample.Timestamp
	st.Valid = true
	st.StaleSince = time.Time{}
	return Applied
}

// MarkStale invalidates a signal whose data stopped arriving for longer than
// the given window. The freshness check runs under the store's lock, so a
// sample applied after the caller's last read can never be invalidated by a
// sweep that observed the older state. It returns true only on the
// valid→invalid transition so callers can open exactly one fault per
// staleness episode. StaleSince is set once and kept until data resumes.
func (s *Store) MarkStale(id domain.SignalID, now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.signals[id]
	if !ok || !st.Valid || !st.HasData() {
		return false
	}
	if now.Sub(st.LastUpdate) <= window {
		return false
	}

	st.Valid = false
	if st.StaleSince.IsZero() {
		st.StaleSince = now
	}
	return true
}

// Get returns a copy of one signal's state.
func (s *Store) Get(id domain.SignalID) (domain.SignalState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.signals[id]
	if !ok {
		return domain.SignalState{}, false
	}
	return *st, true
}

// Snapshot returns a consistent point-in-time copy of the requested signals.
// Unknown ids are skipped.
func (s *Store) Snapshot(ids ...domain.SignalID) map[domain.SignalID]domain.SignalState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.SignalID]domain.SignalState, len(ids))
	for _, id := range ids {
		if st, ok := s.signals[id]; ok {
			out[id] = *st
		}
	}
	return out
}

// All snapshots every tracked signal.
func (s *Store) All() map[domain.SignalID]domain.SignalState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.SignalID]domain.SignalState, len(s.signals))
	for id, st := range s.signals {
		out[id] = *st
	}
	return out
}

// SeqRegressions reports how many samples were discarded by the sequence
// gate since boot.
func (s *Store) SeqRegressions() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seqRegressions
}
