package queue

import (
	"sync"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// FrameQueue is a bounded in-memory FIFO between bus reception and decode.
// Push never blocks: overflow evicts according to policy, because holding up
// the bus receive path is the one thing this queue must never do.
type FrameQueue struct {
	mu      sync.Mutex
	data    []domain.RawFrame
	cap     int
	policy  string
	dropped uint64
}

func NewFrameQueue(capacity int, policy string) *FrameQueue {
	if policy == "" {
		policy = ports.OverflowDropOldest
	}
	return &FrameQueue{
		data:   make([]domain.RawFrame, 0, capacity),
		cap:    capacity,
		policy: policy,
	}
}

// Push enqueues a frame, returning false when the overflow policy lost a
// frame doing so. Under drop_oldest the new frame is always admitted and the
// oldest buffered one is evicted; under drop_newest the incoming frame is
// discarded.
func (q *FrameQueue) Push(f domain.RawFrame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.data) < q.cap {
		q.data = append(q.data, f)
		return true
	}

	q.dropped++
	if q.policy == ports.OverflowDropNewest {
		return false
	}
	copy(q.data, q.data[1:])
	q.data[len(q.data)-1] = f
	return false
}

// PopBatch removes and returns up to max frames in FIFO order.
func (q *FrameQueue) PopBatch(max int) []domain.RawFrame {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]domain.RawFrame, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Dropped reports how many frames the overflow policy has discarded.
func (q *FrameQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

var _ ports.FrameQueue = (*FrameQueue)(nil)
