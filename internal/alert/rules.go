package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// Op compares a signal value against a rule threshold.
type Op string

const (
	OpGreater      Op = "gt"
	OpGreaterEqual Op = "ge"
	OpLess         Op = "lt"
	OpLessEqual    Op = "le"
)

func (o Op) match(value, threshold float64) bool {
	switch o {
	case OpGreater:
		return value > threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpLess:
		return value < threshold
	case OpLessEqual:
		return value <= threshold
	default:
		return false
	}
}

// ThresholdRule fires while a valid signal value matches the comparison.
// Rules form a closed, ordered set; the first rule claiming a code wins that
// cycle. Dwell and escalation timings are calibration values and always come
// from configuration.
type ThresholdRule struct {
	Code          string
	Signal        domain.SignalID
	When          Op
	Value         float64
	Severity      domain.Severity
	Message       string
	EscalateAfter time.Duration
	EscalateTo    domain.Severity
}

// Validate rejects rules the engine cannot evaluate.
func (r ThresholdRule) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("alert rule: code is required")
	}
	if r.Signal == "" {
		return fmt.Errorf("alert rule %q: signal is required", r.Code)
	}
	switch r.When {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
	default:
		return fmt.Errorf("alert rule %q: unknown comparison %q", r.Code, r.When)
	}
	if r.EscalateAfter > 0 && r.EscalateTo <= r.Severity {
		return fmt.Errorf("alert rule %q: escalation must raise severity", r.Code)
	}
	return nil
}

// FaultCode derives the alert code for an open fault, e.g. an open
// StaleSignal fault on pack_voltage surfaces as STALE_PACK_VOLTAGE.
func FaultCode(f domain.FaultRecord) string {
	prefix := "FAULT"
	switch f.Kind {
	case domain.FaultStaleSignal:
		prefix = "STALE"
	case domain.FaultDecode:
		prefix = "DECODE"
	}
	return prefix + "_" + strings.ToUpper(string(f.Signal))
}
