package decode

import (
	"errors"
	"fmt"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
)

// ErrUnknownFrame means the frame id is absent from the signal table. The
// frame is dropped; other boards share the bus and not every id concerns the
// dashboard.
var ErrUnknownFrame = errors.New("unknown frame id")

// ErrMalformedFrame means the frame payload is shorter than the table's
// declared bit layout.
var ErrMalformedFrame = errors.New("malformed frame")

// DecodeError wraps a decode failure with the offending frame id.
type DecodeError struct {
	FrameID uint32
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame 0x%X: %v", e.FrameID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode turns one raw bus frame into the set of signal samples packed in it.
// Decode is pure: it never touches the state store, which keeps the bit
// arithmetic testable against the table formula directly. All samples carry
// the frame's receive timestamp and the supplied sequence number.
func (t *Table) Decode(frame domain.RawFrame, seq uint64) ([]domain.Sample, error) {
	specs, ok := t.byFrame[frame.ID]
	if !ok {
		return nil, &DecodeError{FrameID: frame.ID, Err: ErrUnknownFrame}
	}

	payload := frame.Payload()
	samples := make([]domain.Sample, 0, len(specs))

	for _, spec := range specs {
		need := int(spec.BitOffset+spec.BitWidth+7) / 8
		if need > len(payload) {
			return nil, &DecodeError{
				FrameID: frame.ID,
				Err:     fmt.Errorf("%w: signal %q needs %d bytes, frame has %d", ErrMalformedFrame, spec.ID, need, len(payload)),
			}
		}

		raw := extractBits(payload, spec.BitOffset, spec.BitWidth, spec.BigEndian)
		phys := float64(raw)
		if spec.Signed {
			phys = float64(signExtend(raw, spec.BitWidth))
		}
		value := phys*spec.Scale + spec.Offset

		samples = append(samples, domain.Sample{
			ID:        spec.ID,
			Value:     value,
			Timestamp: frame.Received,
			Seq:       seq,
		})
	}

	return samples, nil
}

// extractBits reads width bits starting at off. Little-endian uses Intel bit
// numbering (bit n lives in byte n/8, position n%8); big-endian reads the
// byte-aligned window as a big-endian integer, which is what the vehicle's
// FDCAN encoding produces.
func extractBits(data []byte, off, width uint, bigEndian bool) uint64 {
	if bigEndian {
		var v uint64
		for _, b := range data[off/8 : off/8+width/8] {
			v = v<<8 | uint64(b)
		}
		return v
	}

	var v uint64
	for i := uint(0); i < width; i++ {
		bit := off + i
		if data[bit/8]>>(bit%8)&1 == 1 {
			v |= 1 << i
		}
	}
	return v
}

// signExtend interprets the low width bits of raw as a two's-complement
// integer.
func signExtend(raw uint64, width uint) int64 {
	if width == 64 {
		return int64(raw)
	}
	if raw&(1<<(width-1)) != 0 {
		return int64(raw | ^(uint64(1)<<width - 1))
	}
	return int64(raw)
}
