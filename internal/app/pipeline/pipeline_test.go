package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/queue"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/fault"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/store"
)

func testTable(t *testing.T) *decode.Table {
	t.Helper()
	table, err := decode.NewTable([]decode.SignalSpec{
		{ID: "pack_voltage", FrameID: 0x100, BitOffset: 0, BitWidth: 16, Scale: 0.01, Staleness: time.Second},
		{ID: "pack_current", FrameID: 0x100, BitOffset: 16, BitWidth: 16, Scale: 0.01, Staleness: time.Second},
		{ID: "fc_temp", FrameID: 0x020, BitOffset: 0, BitWidth: 16, Scale: 0.1, Offset: -40, Staleness: time.Second},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return table
}

func newIngest(t *testing.T, q ports.FrameQueue, obs ports.Observability) (*Ingest, *store.Store, *fault.Ledger) {
	t.Helper()
	table := testTable(t)
	st := store.New(table.Signals())
	faults := fault.NewLedger()
	pol := ports.Policy{MaxQueueLen: 8, MaxBatchSize: 8}
	return NewIngest(table, st, faults, q, pol, obs), st, faults
}

func TestIngestAppliesDecodedSamples(t *testing.T) {
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	obs := &mockObs{}
	ing, st, _ := newIngest(t, q, obs)

	// 0x03E8 little-endian in bits 0-15, 0x07D0 in bits 16-31.
	q.Push(domain.RawFrame{ID: 0x100, Data: []byte{0xE8, 0x03, 0xD0, 0x07}, Length: 4, Received: time.Now()})

	if got := ing.Step(time.Now()); got != 2 {
		t.Fatalf("expected 2 samples applied, got %d", got)
	}
	volt, _ := st.Get("pack_voltage")
	if !volt.Valid || volt.Last.Value != 10.00 {
		t.Fatalf("expected pack_voltage 10.00 valid, got %+v", volt)
	}
	curr, _ := st.Get("pack_current")
	if !curr.Valid || curr.Last.Value != 20.00 {
		t.Fatalf("expected pack_current 20.00 valid, got %+v", curr)
	}
	if obs.counters["dash_samples_applied_total"] != 2 {
		t.Fatalf("expected applied counter 2, got %v", obs.counters["dash_samples_applied_total"])
	}
}

func TestIngestAssignsArrivalOrderSequence(t *testing.T) {
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	ing, st, _ := newIngest(t, q, &mockObs{})

	q.Push(domain.RawFrame{ID: 0x100, Data: []byte{0xE8, 0x03, 0x00, 0x00}, Length: 4})
	q.Push(domain.RawFrame{ID: 0x100, Data: []byte{0xD0, 0x07, 0x00, 0x00}, Length: 4})
	ing.Step(time.Now())

	// The later arrival must win regardless of payload contents.
	volt, _ := st.Get("pack_voltage")
	if volt.Last.Value != 20.00 {
		t.Fatalf("expected latest arrival to win, got %v", volt.Last.Value)
	}
	if volt.Last.Seq != 2 {
		t.Fatalf("expected seq 2, got %d", volt.Last.Seq)
	}
}

func TestIngestMalformedFrameRaisesDecodeFaults(t *testing.T) {
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	obs := &mockObs{}
	ing, st, faults := newIngest(t, q, obs)

	// Frame 0x100 needs 4 bytes; send 2.
	q.Push(domain.RawFrame{ID: 0x100, Data: []byte{0xE8, 0x03}, Length: 2})
	if got := ing.Step(time.Now()); got != 0 {
		t.Fatalf("expected no samples from malformed frame, got %d", got)
	}

	if !faults.IsOpen(domain.FaultDecode, "pack_voltage") || !faults.IsOpen(domain.FaultDecode, "pack_current") {
		t.Fatal("expected decode faults open for both signals of the frame")
	}
	if volt, _ := st.Get("pack_voltage"); volt.Valid {
		t.Fatal("malformed frame must not update the store")
	}
	if obs.counters["dash_decode_errors_total"] != 1 {
		t.Fatalf("expected 1 decode error, got %v", obs.counters["dash_decode_errors_total"])
	}

	// A clean decode of the same frame clears the faults.
	q.Push(domain.RawFrame{ID: 0x100, Data: []byte{0xE8, 0x03, 0xD0, 0x07}, Length: 4})
	ing.Step(time.Now())
	if faults.IsOpen(domain.FaultDecode, "pack_voltage") {
		t.Fatal("expected decode fault cleared after clean decode")
	}
}

func TestIngestIgnoresUnknownFrames(t *testing.T) {
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	obs := &mockObs{}
	ing, _, faults := newIngest(t, q, obs)

	q.Push(domain.RawFrame{ID: 0x7FF, Data: []byte{0x01}, Length: 1})
	if got := ing.Step(time.Now()); got != 0 {
		t.Fatalf("expected no samples, got %d", got)
	}
	if obs.counters["dash_unknown_frames_total"] != 1 {
		t.Fatalf("expected unknown frame counted, got %v", obs.counters["dash_unknown_frames_total"])
	}
	if len(faults.Open()) != 0 {
		t.Fatal("unknown frames must not raise faults")
	}
}

func TestIngestEmptyQueue(t *testing.T) {
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	ing, _, _ := newIngest(t, q, &mockObs{})
	if got := ing.Step(time.Now()); got != 0 {
		t.Fatalf("expected 0 from empty queue, got %d", got)
	}
}

func TestBusPipelinePumpsIntoQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &stubSource{}
	q := queue.NewFrameQueue(8, ports.OverflowDropOldest)
	obs := &mockObs{}

	pol := ports.Policy{MaxQueueLen: 8}
	if err := RunBusPipeline(ctx, src, q, pol, obs); err != nil {
		t.Fatalf("bus pipeline: %v", err)
	}

	for i := 0; i < 3; i++ {
		src.out <- domain.RawFrame{ID: 0x100, Data: []byte{byte(i)}, Length: 1}
	}

	deadline := time.After(time.Second)
	for q.Len() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 queued frames, have %d", q.Len())
		case <-time.After(time.Millisecond):
		}
	}
}

type stubSource struct {
	out chan<- domain.RawFrame
}

func (s *stubSource) Start(out chan<- domain.RawFrame) error {
	s.out = out
	return nil
}

func (s *stubSource) Stop() error { return nil }

type mockObs struct {
	counters map[string]float64
	gauges   map[string]float64
	errors   []error
}

func (m *mockObs) LogInfo(string, ...ports.Field) {}
func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.errors = append(m.errors, err)
}
func (m *mockObs) LogCritical(string, error, ...ports.Field) {}
func (m *mockObs) IncCounter(name string, v float64) {
	if m.counters == nil {
		m.counters = make(map[string]float64)
	}
	m.counters[name] += v
}
func (m *mockObs) SetGauge(name string, v float64) {
	if m.gauges == nil {
		m.gauges = make(map[string]float64)
	}
	m.gauges[name] = v
}
func (m *mockObs) ObserveLatency(string, float64) {}
