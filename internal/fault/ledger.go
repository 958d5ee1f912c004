package fault

import (
	"sort"
	"sync"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

type key struct {
	kind   domain.FaultKind
	signal domain.SignalID
}

// Ledger tracks fault lifecycles. The invariant it enforces: at most one open
// record per (kind, signal) pair, however often the triggering condition is
// re-reported.
type Ledger struct {
	mu     sync.Mutex
	open   map[key]*domain.FaultRecord
	raised uint64
}

func NewLedger() *Ledger {
	return &Ledger{open: make(map[key]*domain.FaultRecord)}
}

// Raise opens a fault if none is open for the pair. It returns true when a
// new record was created.
func (l *Ledger) Raise(kind domain.FaultKind, signal domain.SignalID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{kind, signal}
	if _, exists := l.open[k]; exists {
		return false
	}
	l.open[k] = &domain.FaultRecord{Kind: kind, Signal: signal, RaisedAt: now}
	l.raised++
	return true
}

// Clear closes the open fault for the pair, if any. Returns true when a
// record was closed.
func (l *Ledger) Clear(kind domain.FaultKind, signal domain.SignalID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{kind, signal}
	rec, exists := l.open[k]
	if !exists {
		return false
	}
	rec.ClearedAt = now
	delete(l.open, k)
	return true
}

// IsOpen reports whether the pair currently has an open fault.
func (l *Ledger) IsOpen(kind domain.FaultKind, signal domain.SignalID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.open[key{kind, signal}]
	return exists
}

// Open returns copies of every open fault, ordered by kind then signal so
// downstream rule evaluation is deterministic.
func (l *Ledger) Open() []domain.FaultRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.FaultRecord, 0, len(l.open))
	for _, rec := range l.open {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Signal < out[j].Signal
	})
	return out
}

// Raised reports how many faults have been opened since boot.
func (l *Ledger) Raised() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.raised
}
