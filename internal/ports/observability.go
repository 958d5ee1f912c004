package ports

// Observability emits metrics and logs about decode failures, sequence
// regressions, queue pressure, and fault churn.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

type Field struct {
	Key   string
	Value any
}
