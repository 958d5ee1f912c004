package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/observability"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/queue"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/simbus"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/socketcan"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/alert"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/app/config"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/app/pipeline"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/fault"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/monitor"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/render"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/store"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	bus           BusSource
	queue         FrameQueue
	presenter     Presenter
	alertSink     AlertSink
	observability Observability
}

// WithBusSource injects a custom frame source (replay files, test rigs,
// alternate bus hardware).
func WithBusSource(src BusSource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.bus = src
	}
}

// WithFrameQueue injects a custom queue implementation.
func WithFrameQueue(q FrameQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithPresenter sets the display collaborator that receives render frames.
func WithPresenter(p Presenter) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.presenter = p
	}
}

// WithAlertSink registers a consumer for active-alert changes (a buzzer
// driver, a telemetry uplink, a log).
func WithAlertSink(s AlertSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.alertSink = s
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Runtime wires up the bus → queue → decode → store pipeline together with
// the staleness monitor, alert engine, and render scheduler, and exposes
// lifecycle hooks for embedding the dashboard core in any Go binary.
type Runtime struct {
	cfg       *config.Config
	table     *decode.Table
	store     *store.Store
	faults    *fault.Ledger
	engine    *alert.Engine
	monitor   *monitor.Monitor
	scheduler *render.Scheduler
	ingest    *pipeline.Ingest

	bus       BusSource
	queue     FrameQueue
	presenter Presenter
	alertSink AlertSink
	obs       Observability

	metricsSrv *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewRuntime bootstraps the default adapters (SocketCAN or simulated bus per
// config, in-memory frame queue, Prometheus observability) and assembles the
// full dashboard core. RuntimeOption values override any dependency.
func NewRuntime(cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(nil)
	}

	specs, err := cfg.SignalSpecs()
	if err != nil {
		return nil, err
	}
	table, err := decode.NewTable(specs)
	if err != nil {
		return nil, err
	}

	q := overrides.queue
	if q == nil {
		q = queue.NewFrameQueue(cfg.Policy.MaxQueueLen, cfg.Policy.OnQueueFull)
	}

	bus := overrides.bus
	if bus == nil {
		switch cfg.Bus.Source {
		case "sim":
			bus = simbus.NewSource(specs, cfg.Bus.SimPeriod.Std())
		default:
			bus, err = socketcan.NewSource(cfg.Bus.SocketCAN)
			if err != nil {
				return nil, err
			}
		}
	}

	presenter := overrides.presenter
	if presenter == nil {
		presenter = NewCallbackPresenter("discard", func(RenderFrame) error { return nil })
	}

	alertCfg, err := cfg.AlertConfig()
	if err != nil {
		return nil, err
	}
	engine, err := alert.NewEngine(alertCfg)
	if err != nil {
		return nil, err
	}

	st := store.New(table.Signals())
	faults := fault.NewLedger()

	return &Runtime{
		cfg:       cfg,
		table:     table,
		store:     st,
		faults:    faults,
		engine:    engine,
		monitor:   monitor.New(table, st, faults, obs, cfg.Schedule.MonitorPeriod.Std()),
		scheduler: render.NewScheduler(st, engine, presenter, obs, cfg.LayoutIDs(), cfg.Schedule.RenderPeriod.Std()),
		ingest:    pipeline.NewIngest(table, st, faults, q, cfg.Policy, obs),
		bus:       bus,
		queue:     q,
		presenter: presenter,
		alertSink: overrides.alertSink,
		obs:       obs,
	}, nil
}

// Store exposes the vehicle state store for read access.
func (r *Runtime) Store() map[SignalID]SignalState { return r.store.All() }

// ActiveAlerts returns the current deduplicated alert list.
func (r *Runtime) ActiveAlerts() []Alert { return r.engine.Active() }

// OpenFaults returns the currently open fault records.
func (r *Runtime) OpenFaults() []FaultRecord { return r.faults.Open() }

// Start launches the pipeline and periodic tasks. It returns immediately;
// call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if err := pipeline.RunBusPipeline(ctx, r.bus, r.queue, r.cfg.Policy, r.obs); err != nil {
		cancel()
		return err
	}

	r.wg.Add(4)
	go func() {
		defer r.wg.Done()
		r.ingest.Run(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.monitor.Run(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.alertLoop(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.scheduler.Run(ctx)
	}()

	r.startMetrics()
	r.obs.LogInfo("dashboard_started",
		ports.Field{Key: "bus", Value: r.cfg.Bus.Source},
		ports.Field{Key: "signals", Value: len(r.table.Signals())})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled,
// then shuts down gracefully.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the bus source, metrics server, and all periodic tasks.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.cancel != nil {
		r.cancel()
	}

	if r.bus != nil {
		if err := r.bus.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	r.wg.Wait()
	return errors.Join(errs...)
}

// alertLoop evaluates alert rules against the live snapshot and fault ledger
// at the configured cadence, notifying the sink only when the active set
// actually changed.
func (r *Runtime) alertLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Schedule.AlertPeriod.Std())
	defer ticker.Stop()

	var lastKey string
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			active := r.engine.Evaluate(now, r.store.All(), r.faults.Open())
			r.obs.SetGauge("dash_active_alerts", float64(len(active)))

			key := alertSetKey(active)
			if key == lastKey {
				continue
			}
			lastKey = key
			if r.alertSink != nil {
				r.alertSink.Notify(active)
			}
		}
	}
}

// alertSetKey fingerprints the active set by code and severity; timestamps
// are excluded so refreshes alone don't count as changes.
func alertSetKey(alerts []Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s:%d;", a.Code, a.Severity)
	}
	return b.String()
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
}
