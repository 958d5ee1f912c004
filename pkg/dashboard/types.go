package dashboard

import (
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/app/config"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// SignalID names one telemetry channel (e.g. "pack_voltage").
type SignalID = domain.SignalID

// Sample is one decoded physical value with its ingestion sequence number.
type Sample = domain.Sample

// SignalState is the store's view of a signal: latest sample, update time,
// validity.
type SignalState = domain.SignalState

// RawFrame is an undecoded bus frame.
type RawFrame = domain.RawFrame

// Alert is an active operator-facing condition.
type Alert = domain.Alert

// Severity orders alerts; Critical outranks Warning outranks Info.
type Severity = domain.Severity

const (
	SeverityInfo     = domain.SeverityInfo
	SeverityWarning  = domain.SeverityWarning
	SeverityCritical = domain.SeverityCritical
)

// FaultKind classifies fault ledger entries.
type FaultKind = domain.FaultKind

// FaultRecord is one entry in the fault ledger.
type FaultRecord = domain.FaultRecord

// RenderFrame is the immutable snapshot handed to presenters at the render
// cadence.
type RenderFrame = domain.RenderFrame

// BusSource streams raw frames into the pipeline. The SocketCAN adapter is
// the production implementation; the simulator and custom sources plug in the
// same way.
type BusSource = ports.BusSource

// FrameQueue is the bounded buffer between bus reception and decode.
type FrameQueue = ports.FrameQueue

// Presenter consumes render frames (a display driver, a TUI, a recorder).
type Presenter = ports.Presenter

// AlertSink receives the active alert list whenever it changes.
type AlertSink = ports.AlertSink

// Observability emits the dashboard's metrics and logs.
type Observability = ports.Observability

// Field is a structured log field.
type Field = ports.Field

// Policy bounds the queue and decode batching.
type Policy = ports.Policy

// Config is the dashboard's YAML configuration document.
type Config = config.Config

// LoadConfig reads, defaults, and validates a configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
