package ports

import "github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"

// BusSource streams raw frames from a bus peripheral (SocketCAN, simulators,
// replay files) into the pipeline. Start must not block; Stop must be safe to
// call once and waits for in-flight delivery to finish.
type BusSource interface {
	Start(out chan<- domain.RawFrame) error
	Stop() error
}
