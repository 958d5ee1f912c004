package domain

import "time"

// RawFrame is one opaque message received from the vehicle bus peripheral.
// Payload length is carried separately because FDCAN frames pad their data
// field to the next legal DLC size.
type RawFrame struct {
	ID       uint32
	Data     []byte
	Length   uint8
	Received time.Time
}

// Payload returns the Length-bounded slice of frame data.
func (f RawFrame) Payload() []byte {
	if int(f.Length) > len(f.Data) {
		return f.Data
	}
	return f.Data[:f.Length]
}
