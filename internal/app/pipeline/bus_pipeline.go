package pipeline

import (
	"context"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// RunBusPipeline starts the bus source and pumps its frames into the bounded
// queue. The pump goroutine never blocks on a full queue; the queue's
// overflow policy decides which frame to lose.
func RunBusPipeline(ctx context.Context, src ports.BusSource, q ports.FrameQueue, pol ports.Policy, obs ports.Observability) error {
	ch := make(chan domain.RawFrame, pol.MaxQueueLen)

	if err := src.Start(ch); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-ch:
				obs.IncCounter("dash_frames_received_total", 1)
				if !q.Push(f) {
					obs.IncCounter("dash_frames_dropped_total", 1)
				}
				obs.SetGauge("dash_queue_length", float64(q.Len()))
			}
		}
	}()

	return nil
}
