package monitor

import (
	"context"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/fault"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/store"
)

// Monitor is the liveness watchdog: on a fixed period it sweeps every tracked
// signal and compares the time since its last update against the signal
// table's staleness window. Staleness is the system's only timeout mechanism
// for data liveness; nothing else in the core times out raw arrival.
type Monitor struct {
	table  *decode.Table
	store  *store.Store
	faults *fault.Ledger
	obs    ports.Observability
	period time.Duration
}

func New(table *decode.Table, st *store.Store, faults *fault.Ledger, obs ports.Observability, period time.Duration) *Monitor {
	return &Monitor{
		table:  table,
		store:  st,
		faults: faults,
		obs:    obs,
		period: period,
	}
}

// Sweep runs one scan at the given instant and returns the number of signals
// currently stale. Each staleness episode invalidates the signal exactly once
// and holds exactly one open StaleSignal fault; recovery clears both.
//
// Signals that have never produced a sample stay invalid but raise no fault:
// at boot the bus may legitimately be quiet, and absence of data is already
// surfaced by the invalid flag.
func (m *Monitor) Sweep(now time.Time) int {
	stale := 0

	for _, id := range m.table.Signals() {
		window, _ := m.table.StalenessWindow(id)
		st, ok := m.store.Get(id)
		if !ok || !st.HasData() {
			continue
		}

		// The store re-checks freshness under its own lock, so a sample
		// applied after the read above cannot be invalidated here.
		if m.store.MarkStale(id, now, window) {
			m.obs.LogError("signal_stale", nil,
				ports.Field{Key: "signal", Value: string(id)},
				ports.Field{Key: "window", Value: window.String()})
		}

		st, _ = m.store.Get(id)
		if !st.Valid {
			stale++
			if m.faults.Raise(domain.FaultStaleSignal, id, now) {
				m.obs.IncCounter("dash_faults_raised_total", 1)
			}
			continue
		}

		if m.faults.Clear(domain.FaultStaleSignal, id, now) {
			m.obs.LogInfo("signal_recovered", ports.Field{Key: "signal", Value: string(id)})
		}
	}

	m.obs.SetGauge("dash_stale_signals", float64(stale))
	return stale
}

// Run sweeps on the configured period until the context is cancelled. Every
// sweep recomputes from current state, so suspension during low-power modes
// costs nothing on resumption.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
