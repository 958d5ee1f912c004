package render

import (
	"context"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/store"
)

// AlertSource exposes the current active alert list.
type AlertSource interface {
	Active() []domain.Alert
}

// Scheduler publishes render-ready frames at a fixed cadence, decoupled from
// bus arrival jitter: the display keeps refreshing with best-known state even
// when the bus goes quiet. Delivery is fire-and-forget through the Presenter
// port; a slow draw never delays telemetry ingestion.
type Scheduler struct {
	store     *store.Store
	alerts    AlertSource
	presenter ports.Presenter
	obs       ports.Observability
	layout    []domain.SignalID
	period    time.Duration
}

func NewScheduler(st *store.Store, alerts AlertSource, presenter ports.Presenter, obs ports.Observability, layout []domain.SignalID, period time.Duration) *Scheduler {
	return &Scheduler{
		store:     st,
		alerts:    alerts,
		presenter: presenter,
		obs:       obs,
		layout:    layout,
		period:    period,
	}
}

// Tick assembles and publishes one frame. The frame is immutable: snapshot
// copies plus the current alert list, never mutated after handoff.
func (s *Scheduler) Tick(now time.Time) domain.RenderFrame {
	frame := domain.RenderFrame{
		Timestamp: now,
		Signals:   s.store.Snapshot(s.layout...),
		Alerts:    s.alerts.Active(),
	}

	start := time.Now()
	if err := s.presenter.Present(frame); err != nil {
		s.obs.LogError("present_failed", err, ports.Field{Key: "presenter", Value: s.presenter.Name()})
		s.obs.IncCounter("dash_present_failures_total", 1)
		return frame
	}
	s.obs.ObserveLatency("dash_present_seconds", time.Since(start).Seconds())
	s.obs.IncCounter("dash_frames_rendered_total", 1)
	return frame
}

// Run ticks at the configured cadence until cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}
