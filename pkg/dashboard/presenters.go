package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// ErrPresenterClosed is returned when a channel presenter is handed a frame
// after being closed.
var ErrPresenterClosed = errors.New("dashboard: presenter closed")

// FrameFunc handles one render frame.
type FrameFunc func(RenderFrame) error

// NewCallbackPresenter adapts a function into a Presenter so callers can plug
// arbitrary display logic without defining structs.
func NewCallbackPresenter(name string, fn FrameFunc) Presenter {
	if name == "" {
		name = "callback"
	}
	return &callbackPresenter{name: name, fn: fn}
}

// NewChannelPresenter exposes render frames via a channel; it returns the
// presenter, the read-only channel, and a close function the caller should
// invoke during shutdown. Delivery is latest-wins: when the consumer lags,
// buffered frames are evicted in favour of newer ones rather than stalling
// the render cadence.
func NewChannelPresenter(name string, buffer int) (Presenter, <-chan RenderFrame, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.RenderFrame, buffer)
	p := &channelPresenter{name: name, ch: ch}
	return p, ch, func() { p.close() }
}

type callbackPresenter struct {
	name string
	fn   FrameFunc
}

func (p *callbackPresenter) Present(frame domain.RenderFrame) error {
	if p.fn == nil {
		return fmt.Errorf("callback presenter %q: nil handler", p.name)
	}
	return p.fn(frame)
}

func (p *callbackPresenter) Name() string { return p.name }

type channelPresenter struct {
	name string

	// mu serializes sends against close so Present can never write to a
	// closed channel; the closed flag turns late Presents into a clean error.
	mu     sync.Mutex
	ch     chan domain.RenderFrame
	closed bool
}

func (p *channelPresenter) Present(frame domain.RenderFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPresenterClosed
	}

	for {
		select {
		case p.ch <- frame:
			return nil
		default:
		}

		// Full buffer: evict one stale frame and retry with the newer one.
		select {
		case <-p.ch:
		default:
		}
	}
}

func (p *channelPresenter) Name() string { return p.name }

func (p *channelPresenter) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}
