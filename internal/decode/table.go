package decode

import (
	"fmt"
	"sort"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// SignalSpec is one row of the signal table: where a signal lives inside its
// bus frame and how raw bits become a physical value.
type SignalSpec struct {
	ID        domain.SignalID
	FrameID   uint32
	BitOffset uint
	BitWidth  uint
	Scale     float64
	Offset    float64
	Signed    bool
	// BigEndian selects Motorola byte order. The FDCAN boards on the vehicle
	// emit big-endian fixed-width integers; most reference tables are
	// little-endian, so that stays the default.
	BigEndian bool
	Staleness time.Duration
	Unit      string
}

// Table is the read-only signal dictionary supplied at startup. It maps frame
// IDs to the set of signals packed into each frame.
type Table struct {
	specs   map[domain.SignalID]SignalSpec
	byFrame map[uint32][]SignalSpec
	order   []domain.SignalID
}

// NewTable validates the specs and builds the frame index. Specs within one
// frame decode in bit-offset order so multi-signal frames extract
// deterministically.
func NewTable(specs []SignalSpec) (*Table, error) {
	t := &Table{
		specs:   make(map[domain.SignalID]SignalSpec, len(specs)),
		byFrame: make(map[uint32][]SignalSpec),
	}

	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("signal table: empty signal id for frame 0x%X", s.FrameID)
		}
		if _, dup := t.specs[s.ID]; dup {
			return nil, fmt.Errorf("signal table: duplicate signal %q", s.ID)
		}
		if s.BitWidth == 0 || s.BitWidth > 64 {
			return nil, fmt.Errorf("signal %q: bit width %d out of range 1..64", s.ID, s.BitWidth)
		}
		if s.BigEndian && (s.BitOffset%8 != 0 || s.BitWidth%8 != 0) {
			return nil, fmt.Errorf("signal %q: big-endian extraction must be byte aligned", s.ID)
		}
		if s.Scale == 0 {
			s.Scale = 1
		}
		if s.Staleness <= 0 {
			return nil, fmt.Errorf("signal %q: staleness window must be positive", s.ID)
		}

		t.specs[s.ID] = s
		t.byFrame[s.FrameID] = append(t.byFrame[s.FrameID], s)
		t.order = append(t.order, s.ID)
	}

	if len(t.specs) == 0 {
		return nil, fmt.Errorf("signal table: no signals defined")
	}

	for id := range t.byFrame {
		frame := t.byFrame[id]
		sort.Slice(frame, func(i, j int) bool { return frame[i].BitOffset < frame[j].BitOffset })
	}

	return t, nil
}

// Lookup returns the spec for one signal.
func (t *Table) Lookup(id domain.SignalID) (SignalSpec, bool) {
	s, ok := t.specs[id]
	return s, ok
}

// Signals lists every tracked signal in table order.
func (t *Table) Signals() []domain.SignalID {
	out := make([]domain.SignalID, len(t.order))
	copy(out, t.order)
	return out
}

// FrameSignals lists the signals packed into the given frame.
func (t *Table) FrameSignals(frameID uint32) []domain.SignalID {
	specs := t.byFrame[frameID]
	if len(specs) == 0 {
		return nil
	}
	out := make([]domain.SignalID, len(specs))
	for i, s := range specs {
		out[i] = s.ID
	}
	return out
}

// StalenessWindow returns the configured liveness bound for a signal, or
// false for unknown signals.
func (t *Table) StalenessWindow(id domain.SignalID) (time.Duration, bool) {
	s, ok := t.specs[id]
	if !ok {
		return 0, false
	}
	return s.Staleness, true
}
