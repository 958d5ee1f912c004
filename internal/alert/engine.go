package alert

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// Config calibrates the engine. ClearDwell is the hysteresis window: a
// condition that stops matching keeps its alert active until it has stayed
// quiet for the dwell, so a noisy signal bouncing across a threshold cannot
// flap the alert list.
type Config struct {
	Rules         []ThresholdRule
	ClearDwell    time.Duration
	FaultSeverity map[domain.FaultKind]domain.Severity
}

// Engine recomputes the active alert set each evaluation cycle from the
// current snapshot and open faults. It owns alert identity: one active alert
// per code, FirstRaisedAt preserved across refreshes.
type Engine struct {
	cfg    Config
	ruleBy map[string]ThresholdRule

	mu             sync.Mutex
	active         map[string]*domain.Alert
	clearCandidate map[string]time.Time
	last           []domain.Alert
}

func NewEngine(cfg Config) (*Engine, error) {
	ruleBy := make(map[string]ThresholdRule, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := ruleBy[r.Code]; dup {
			return nil, fmt.Errorf("alert rule %q: duplicate code", r.Code)
		}
		ruleBy[r.Code] = r
	}
	return &Engine{
		cfg:            cfg,
		ruleBy:         ruleBy,
		active:         make(map[string]*domain.Alert),
		clearCandidate: make(map[string]time.Time),
	}, nil
}

type pending struct {
	severity domain.Severity
	message  string
	faults   []domain.FaultRecord
}

// Evaluate runs one cycle at the given instant and returns the active alert
// list sorted worst-severity first. Each cycle is computed entirely from the
// inputs; a cancelled and resumed evaluation task never resumes mid-cycle
// state.
func (e *Engine) Evaluate(now time.Time, snapshot map[domain.SignalID]domain.SignalState, open []domain.FaultRecord) []domain.Alert {
	desired := make(map[string]pending)

	// Threshold rules in declared order. Invalid signals are skipped: a stale
	// value must not fire (or clear) a threshold.
	for _, rule := range e.cfg.Rules {
		st, ok := snapshot[rule.Signal]
		if !ok || !st.Valid {
			continue
		}
		if !rule.When.match(st.Last.Value, rule.Value) {
			continue
		}
		if _, dup := desired[rule.Code]; dup {
			continue
		}
		desired[rule.Code] = pending{severity: rule.Severity, message: rule.Message}
	}

	// One alert per open fault, deduplicated by derived code.
	for _, f := range open {
		code := FaultCode(f)
		sev, ok := e.cfg.FaultSeverity[f.Kind]
		if !ok {
			sev = domain.SeverityWarning
		}
		if p, exists := desired[code]; exists {
			p.faults = append(p.faults, f)
			desired[code] = p
			continue
		}
		desired[code] = pending{
			severity: sev,
			message:  fmt.Sprintf("%s fault on %s", f.Kind, f.Signal),
			faults:   []domain.FaultRecord{f},
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for code, p := range desired {
		delete(e.clearCandidate, code)

		a, exists := e.active[code]
		if !exists {
			a = &domain.Alert{Code: code, FirstRaisedAt: now}
			e.active[code] = a
		}
		a.Severity = p.severity
		a.Message = p.message
		a.RelatedFaults = p.faults
		a.LastSeenAt = now

		if rule, ok := e.ruleBy[code]; ok && rule.EscalateAfter > 0 {
			if now.Sub(a.FirstRaisedAt) >= rule.EscalateAfter {
				a.Severity = rule.EscalateTo
			}
		}
	}

	// Hysteresis: codes that stopped matching clear only after the condition
	// has held clear for the dwell.
	for code := range e.active {
		if _, still := desired[code]; still {
			continue
		}
		since, marked := e.clearCandidate[code]
		if !marked {
			e.clearCandidate[code] = now
			continue
		}
		if now.Sub(since) >= e.cfg.ClearDwell {
			delete(e.active, code)
			delete(e.clearCandidate, code)
		}
	}

	e.last = e.sortedLocked()
	out := make([]domain.Alert, len(e.last))
	copy(out, e.last)
	return out
}

// Active returns the result of the most recent evaluation cycle.
func (e *Engine) Active() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Alert, len(e.last))
	copy(out, e.last)
	return out
}

// Highest returns the worst currently active severity.
func (e *Engine) Highest() (domain.Severity, bool) {
	return domain.HighestSeverity(e.Active())
}

func (e *Engine) sortedLocked() []domain.Alert {
	out := make([]domain.Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Code < out[j].Code
	})
	return out
}
