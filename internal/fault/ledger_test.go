package fault

import (
	"testing"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

func TestRaiseIsIdempotentPerPair(t *testing.T) {
	l := NewLedger()
	now := time.Unix(10, 0)

	if !l.Raise(domain.FaultStaleSignal, "pack_voltage", now) {
		t.Fatalf("first raise should open a record")
	}
	if l.Raise(domain.FaultStaleSignal, "pack_voltage", now.Add(time.Second)) {
		t.Fatalf("second raise for same pair must not open another record")
	}
	if !l.Raise(domain.FaultDecode, "pack_voltage", now) {
		t.Fatalf("different kind for same signal is a distinct pair")
	}

	if got := len(l.Open()); got != 2 {
		t.Fatalf("expected 2 open faults, got %d", got)
	}
	if l.Raised() != 2 {
		t.Fatalf("expected raised counter 2, got %d", l.Raised())
	}
}

func TestClearThenReRaise(t *testing.T) {
	l := NewLedger()
	now := time.Unix(10, 0)

	l.Raise(domain.FaultStaleSignal, "fc_temp", now)
	if !l.Clear(domain.FaultStaleSignal, "fc_temp", now.Add(time.Second)) {
		t.Fatalf("clear should close the open record")
	}
	if l.Clear(domain.FaultStaleSignal, "fc_temp", now) {
		t.Fatalf("clearing a closed pair must be a no-op")
	}
	if l.IsOpen(domain.FaultStaleSignal, "fc_temp") {
		t.Fatalf("pair should be closed")
	}

	// A fresh episode opens a fresh record.
	if !l.Raise(domain.FaultStaleSignal, "fc_temp", now.Add(2*time.Second)) {
		t.Fatalf("re-raise after clear should open a new record")
	}
}

func TestOpenOrderingDeterministic(t *testing.T) {
	l := NewLedger()
	now := time.Unix(10, 0)
	l.Raise(domain.FaultStaleSignal, "b", now)
	l.Raise(domain.FaultDecode, "z", now)
	l.Raise(domain.FaultStaleSignal, "a", now)

	open := l.Open()
	if len(open) != 3 {
		t.Fatalf("expected 3 open, got %d", len(open))
	}
	if open[0].Kind != domain.FaultDecode || open[1].Signal != "a" || open[2].Signal != "b" {
		t.Fatalf("unexpected order: %+v", open)
	}
}
