package domain

import "time"

// FaultKind classifies an abnormal condition tracked with an open/closed
// lifecycle.
type FaultKind string

const (
	// FaultStaleSignal means a signal stopped updating within its staleness
	// window.
	FaultStaleSignal FaultKind = "stale_signal"
	// FaultDecode means a frame carrying this signal failed to decode.
	FaultDecode FaultKind = "decode"
)

// FaultRecord tracks one abnormal condition on one signal. At most one open
// record may exist per (Kind, Signal) pair.
type FaultRecord struct {
	Kind      FaultKind
	Signal    SignalID
	RaisedAt  time.Time
	ClearedAt time.Time
}

// Open reports whether the fault condition is still present.
func (f FaultRecord) Open() bool {
	return f.ClearedAt.IsZero()
}
