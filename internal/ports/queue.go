package ports

import "github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"

// FrameQueue is the bounded buffer between bus reception and decode. Bus
// receipt must never be delayed by a slow consumer, so Push is non-blocking:
// when the queue is full the overflow policy decides which frame is lost.
type FrameQueue interface {
	// Push enqueues a frame. It returns false when a frame was lost to the
	// overflow policy (either the pushed frame or the evicted oldest one).
	Push(f domain.RawFrame) bool
	PopBatch(max int) []domain.RawFrame
	Len() int
}
