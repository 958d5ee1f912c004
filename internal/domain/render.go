package domain

import "time"

// RenderFrame is the immutable value handed to the presentation collaborator
// each render tick. A frame is never mutated after publication; the next tick
// supersedes it with a new one.
type RenderFrame struct {
	Timestamp time.Time
	Signals   map[SignalID]SignalState
	Alerts    []Alert
}

// Highest returns the worst active severity carried by the frame.
func (f RenderFrame) Highest() (Severity, bool) {
	return HighestSeverity(f.Alerts)
}
