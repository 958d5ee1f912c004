package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const runtimeTestConfig = `
bus:
  source: sim
  sim_period: 5ms
schedule:
  monitor_period: 10ms
  alert_period: 10ms
  render_period: 10ms
metrics:
  addr: "127.0.0.1:0"
signals:
  pack_voltage:
    frame_id: 0x100
    bit_width: 16
    scale: 0.01
    staleness_window: 1s
    unit: V
  pack_current:
    frame_id: 0x100
    bit_offset: 16
    bit_width: 16
    scale: 0.01
    staleness_window: 1s
    unit: A
alerts:
  rules:
    - code: PACK_LIVE
      signal: pack_voltage
      when: gt
      value: 0
      severity: info
      message: pack voltage present
`

func loadRuntimeConfig(t *testing.T) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(path, []byte(runtimeTestConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestRuntimeEndToEnd(t *testing.T) {
	cfg := loadRuntimeConfig(t)

	presenter, frames, closeFrames := NewChannelPresenter("test", 4)
	sink := &captureAlertSink{}

	rt, err := NewRuntime(cfg,
		WithPresenter(presenter),
		WithAlertSink(sink),
		WithObservability(nopObs{}),
	)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	if err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Wait for a render frame carrying live pack voltage from the simulator.
	deadline := time.After(5 * time.Second)
	var sawValid bool
	for !sawValid {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for a valid render frame")
		case f := <-frames:
			if st, ok := f.Signals["pack_voltage"]; ok && st.Valid && st.Last.Value > 0 {
				sawValid = true
			}
		}
	}

	// The always-true threshold rule must surface through the alert loop.
	deadline = time.After(5 * time.Second)
	for !sink.has("PACK_LIVE") {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for PACK_LIVE alert")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	closeFrames()

	if state := rt.Store(); !state["pack_voltage"].Valid {
		t.Fatal("expected pack_voltage valid after run")
	}
}

func TestNewRuntimeRequiresConfig(t *testing.T) {
	if _, err := NewRuntime(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

type captureAlertSink struct {
	mu    sync.Mutex
	codes map[string]bool
}

func (s *captureAlertSink) Notify(alerts []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]bool)
	}
	for _, a := range alerts {
		s.codes[a.Code] = true
	}
}

func (s *captureAlertSink) has(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[code]
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...Field)        {}
func (nopObs) LogError(string, error, ...Field) {}
func (nopObs) LogCritical(string, error, ...Field) {}
func (nopObs) IncCounter(string, float64)      {}
func (nopObs) SetGauge(string, float64)        {}
func (nopObs) ObserveLatency(string, float64)  {}
