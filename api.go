package dashboard

import (
	base "github.com/UAlberta-EcoCar/Sally-Dashboard/pkg/dashboard"
)

// Re-exported errors for convenience.
var (
	ErrPresenterClosed = base.ErrPresenterClosed
)

// Type aliases so consumers can import the module root directly.
type (
	Config        = base.Config
	Policy        = base.Policy
	Runtime       = base.Runtime
	RuntimeOption = base.RuntimeOption
	SignalID      = base.SignalID
	Sample        = base.Sample
	SignalState   = base.SignalState
	RawFrame      = base.RawFrame
	RenderFrame   = base.RenderFrame
	Alert         = base.Alert
	Severity      = base.Severity
	FaultKind     = base.FaultKind
	FaultRecord   = base.FaultRecord
	BusSource     = base.BusSource
	FrameQueue    = base.FrameQueue
	Presenter     = base.Presenter
	AlertSink     = base.AlertSink
	Observability = base.Observability
	Field         = base.Field
	FrameFunc     = base.FrameFunc
)

// Severity levels, worst last.
const (
	SeverityInfo     = base.SeverityInfo
	SeverityWarning  = base.SeverityWarning
	SeverityCritical = base.SeverityCritical
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithBusSource(src BusSource) RuntimeOption {
	return base.WithBusSource(src)
}

func WithFrameQueue(q FrameQueue) RuntimeOption {
	return base.WithFrameQueue(q)
}

func WithPresenter(p Presenter) RuntimeOption {
	return base.WithPresenter(p)
}

func WithAlertSink(s AlertSink) RuntimeOption {
	return base.WithAlertSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Presenter adapters.
func NewCallbackPresenter(name string, fn FrameFunc) Presenter {
	return base.NewCallbackPresenter(name, fn)
}

func NewChannelPresenter(name string, buffer int) (Presenter, <-chan RenderFrame, func()) {
	return base.NewChannelPresenter(name, buffer)
}
