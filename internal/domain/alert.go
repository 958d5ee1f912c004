package domain

import "time"

// Severity ranks alerts for display and escalation. Higher is worse.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Alert is a deduplicated, severity-ranked notification derived from faults
// and threshold checks. One active Alert exists per Code; re-raising an
// active code refreshes LastSeenAt but never touches FirstRaisedAt, which
// duration-based escalation depends on.
type Alert struct {
	Code          string
	Severity      Severity
	Message       string
	RelatedFaults []FaultRecord
	FirstRaisedAt time.Time
	LastSeenAt    time.Time
}

// Age returns how long the alert has been continuously active.
func (a Alert) Age(now time.Time) time.Duration {
	return now.Sub(a.FirstRaisedAt)
}

// HighestSeverity returns the worst severity among the given alerts, and
// false when the list is empty.
func HighestSeverity(alerts []Alert) (Severity, bool) {
	if len(alerts) == 0 {
		return SeverityInfo, false
	}
	max := SeverityInfo
	for _, a := range alerts {
		if a.Severity > max {
			max = a.Severity
		}
	}
	return max, true
}
