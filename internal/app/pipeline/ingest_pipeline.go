package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/fault"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/store"
)

// Ingest drains the frame queue, decodes each frame against the signal table,
// and applies the resulting samples to the state store. It owns the ingestion
// sequence counter: every raw frame gets the next sequence number, so the
// store's ordering gate works off arrival order rather than bus timestamps.
type Ingest struct {
	table  *decode.Table
	store  *store.Store
	faults *fault.Ledger
	queue  ports.FrameQueue
	pol    ports.Policy
	obs    ports.Observability

	seq uint64
}

func NewIngest(table *decode.Table, st *store.Store, faults *fault.Ledger, q ports.FrameQueue, pol ports.Policy, obs ports.Observability) *Ingest {
	return &Ingest{table: table, store: st, faults: faults, queue: q, pol: pol, obs: obs}
}

// Step processes at most one batch and reports how many samples were applied.
// Unknown frame ids are counted and skipped. A malformed payload fails the
// whole frame: every signal carried by that frame gets a decode fault, which
// the next clean decode of the frame clears.
func (p *Ingest) Step(now time.Time) int {
	batch := p.queue.PopBatch(p.pol.MaxBatchSize)
	if len(batch) == 0 {
		return 0
	}

	applied := 0
	for _, frame := range batch {
		p.seq++
		samples, err := p.table.Decode(frame, p.seq)
		if err != nil {
			if errors.Is(err, decode.ErrUnknownFrame) {
				p.obs.IncCounter("dash_unknown_frames_total", 1)
				continue
			}
			p.obs.IncCounter("dash_decode_errors_total", 1)
			p.obs.LogError("frame_decode_failed", err,
				ports.Field{Key: "frame_id", Value: frame.ID})
			for _, id := range p.table.FrameSignals(frame.ID) {
				if p.faults.Raise(domain.FaultDecode, id, now) {
					p.obs.IncCounter("dash_faults_raised_total", 1)
				}
			}
			continue
		}

		for _, s := range samples {
			switch p.store.Update(s) {
			case store.Applied:
				applied++
			case store.SeqRegression:
				p.obs.IncCounter("dash_seq_regressions_total", 1)
			}
			p.faults.Clear(domain.FaultDecode, s.ID, now)
		}
	}

	if applied > 0 {
		p.obs.IncCounter("dash_samples_applied_total", float64(applied))
	}
	p.obs.SetGauge("dash_queue_length", float64(p.queue.Len()))
	return applied
}

// Run steps until the context is cancelled, backing off when the queue is
// empty.
func (p *Ingest) Run(ctx context.Context) {
	sleep := p.pol.IdleSleep
	if sleep <= 0 {
		sleep = 5 * time.Millisecond
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if p.Step(time.Now()) == 0 && p.queue.Len() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}
}
