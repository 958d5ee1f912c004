package simbus

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// Source synthesizes plausible bus traffic straight from the signal table, so
// the full pipeline can run on a bench with no vehicle attached. Each signal
// follows a slow sine sweep across the middle of its representable range.
type Source struct {
	frames []simFrame
	period time.Duration

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

type simFrame struct {
	id     uint32
	length int
	specs  []decode.SignalSpec
}

// NewSource builds a simulator emitting every frame in the table once per
// period.
func NewSource(specs []decode.SignalSpec, period time.Duration) *Source {
	byFrame := make(map[uint32][]decode.SignalSpec)
	for _, s := range specs {
		byFrame[s.FrameID] = append(byFrame[s.FrameID], s)
	}

	frames := make([]simFrame, 0, len(byFrame))
	for id, group := range byFrame {
		length := 0
		for _, s := range group {
			if need := int(s.BitOffset+s.BitWidth+7) / 8; need > length {
				length = need
			}
		}
		frames = append(frames, simFrame{id: id, length: length, specs: group})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].id < frames[j].id })

	if period <= 0 {
		period = 100 * time.Millisecond
	}
	return &Source{frames: frames, period: period}
}

func (s *Source) Start(out chan<- domain.RawFrame) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.emit(ctx, out)
	return nil
}

func (s *Source) emit(ctx context.Context, out chan<- domain.RawFrame) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start).Seconds()
			for _, sf := range s.frames {
				frame := domain.RawFrame{
					ID:       sf.id,
					Data:     s.packFrame(sf, elapsed),
					Length:   uint8(sf.length),
					Received: now,
				}
				select {
				case <-ctx.Done():
					return
				case out <- frame:
				}
			}
		}
	}
}

func (s *Source) packFrame(sf simFrame, elapsed float64) []byte {
	data := make([]byte, sf.length)
	for _, spec := range sf.specs {
		insertBits(data, spec.BitOffset, spec.BitWidth, rawValue(spec, elapsed), spec.BigEndian)
	}
	return data
}

// rawValue sweeps a sine through the middle half of the field's raw range on
// a 30 second cycle, offset by frame id so channels don't move in lockstep.
func rawValue(spec decode.SignalSpec, elapsed float64) uint64 {
	span := float64(uint64(1)<<spec.BitWidth - 1)
	mid := span / 2
	amp := span / 4
	phase := float64(spec.FrameID%16) / 16 * 2 * math.Pi
	v := mid + amp*math.Sin(2*math.Pi*elapsed/30+phase)
	if v < 0 {
		v = 0
	}
	if v > span {
		v = span
	}
	return uint64(math.Round(v))
}

func insertBits(data []byte, off, width uint, raw uint64, bigEndian bool) {
	if bigEndian {
		bytes := width / 8
		for i := uint(0); i < bytes; i++ {
			data[off/8+i] = byte(raw >> (8 * (bytes - 1 - i)))
		}
		return
	}
	for i := uint(0); i < width; i++ {
		bit := off + i
		if raw>>i&1 == 1 {
			data[bit/8] |= 1 << (bit % 8)
		}
	}
}

func (s *Source) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.started = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	return nil
}

var _ ports.BusSource = (*Source)(nil)
