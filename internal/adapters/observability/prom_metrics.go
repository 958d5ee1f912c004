package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// PromObs backs the Observability port with Prometheus collectors plus the
// stdlib logger for the log methods.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the dashboard's collectors on the given registerer
// (nil means the default registry, which is what the runtime uses; tests pass
// their own).
func NewPromObs(reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_frames_received_total",
		Help: "Raw frames accepted from the vehicle bus.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_frames_dropped_total",
		Help: "Frames lost to the bounded queue's overflow policy.",
	})
	decodeErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_decode_errors_total",
		Help: "Known frames dropped due to malformed payloads.",
	})
	unknownFrames := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_unknown_frames_total",
		Help: "Frames ignored because no signal table entry matched their id.",
	})
	seqRegress := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_seq_regressions_total",
		Help: "Samples discarded by the store's sequence gate.",
	})
	applied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_samples_applied_total",
		Help: "Decoded samples accepted into the vehicle state store.",
	})
	faults := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_faults_raised_total",
		Help: "Fault records opened since boot.",
	})
	rendered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_frames_rendered_total",
		Help: "Render frames delivered to the presentation collaborator.",
	})
	presentFail := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dash_present_failures_total",
		Help: "Render frames the presenter refused.",
	})
	queueLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dash_queue_length",
		Help: "Raw frames currently buffered ahead of decode.",
	})
	staleGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dash_stale_signals",
		Help: "Signals currently outside their staleness window.",
	})
	activeAlerts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dash_active_alerts",
		Help: "Currently active, deduplicated alerts.",
	})
	presentLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dash_present_seconds",
		Help:    "Time spent handing a render frame to the presenter.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	reg.MustRegister(received, dropped, decodeErrs, unknownFrames, seqRegress,
		applied, faults, rendered, presentFail, queueLen, staleGauge, activeAlerts,
		presentLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"dash_frames_received_total":  received,
			"dash_frames_dropped_total":   dropped,
			"dash_decode_errors_total":    decodeErrs,
			"dash_unknown_frames_total":   unknownFrames,
			"dash_seq_regressions_total":  seqRegress,
			"dash_samples_applied_total":  applied,
			"dash_faults_raised_total":    faults,
			"dash_frames_rendered_total":  rendered,
			"dash_present_failures_total": presentFail,
		},
		gauges: map[string]prometheus.Gauge{
			"dash_queue_length":  queueLen,
			"dash_stale_signals": staleGauge,
			"dash_active_alerts": activeAlerts,
		},
		histos: map[string]prometheus.Observer{
			"dash_present_seconds": presentLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
		return
	}
	log.Printf("ERROR: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func formatFields(fields []ports.Field) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
