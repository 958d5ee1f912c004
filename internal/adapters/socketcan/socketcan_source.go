package socketcan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.einride.tech/can/pkg/socketcan"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// Config names the SocketCAN interface to receive from.
type Config struct {
	Interface string `yaml:"interface"`
}

func (c *Config) ApplyDefaults() {
	if c.Interface == "" {
		c.Interface = "can0"
	}
}

func (c *Config) Validate() error {
	if c.Interface == "" {
		return errors.New("interface is required")
	}
	return nil
}

// Source streams frames from a SocketCAN interface into the pipeline. It is
// the production bus peripheral adapter; the simulator stands in on the
// bench.
type Source struct {
	cfg     Config
	conn    net.Conn
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

func NewSource(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg}, nil
}

func (s *Source) Start(out chan<- domain.RawFrame) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("socketcan source already started")
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	conn, err := socketcan.DialContext(ctx, "can", s.cfg.Interface)
	if err != nil {
		cancel()
		return fmt.Errorf("socketcan dial %s: %w", s.cfg.Interface, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.receive(ctx, conn, out)
	return nil
}

func (s *Source) receive(ctx context.Context, conn net.Conn, out chan<- domain.RawFrame) {
	defer s.wg.Done()

	recv := socketcan.NewReceiver(conn)
	for recv.Receive() {
		f := recv.Frame()
		if f.IsRemote {
			continue
		}

		data := make([]byte, f.Length)
		copy(data, f.Data[:f.Length])

		frame := domain.RawFrame{
			ID:       f.ID,
			Data:     data,
			Length:   f.Length,
			Received: time.Now(),
		}

		select {
		case <-ctx.Done():
			return
		case out <- frame:
		}
	}
}

func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	cancel := s.cancel
	s.started = false
	s.conn = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if conn != nil {
		// Closing the socket unblocks the receiver loop.
		if e := conn.Close(); e != nil {
			err = e
		}
	}

	s.wg.Wait()
	return err
}

var _ ports.BusSource = (*Source)(nil)
