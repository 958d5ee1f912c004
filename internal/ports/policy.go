package ports

import "time"

// Overflow policies for the frame queue. DropOldest is the default: the
// newest data wins, which is what a live dashboard wants.
const (
	OverflowDropOldest = "drop_oldest"
	OverflowDropNewest = "drop_newest"
)

// Policy bounds the pipeline's internal resources.
type Policy struct {
	MaxQueueLen  int           `yaml:"max_queue_len"`
	MaxBatchSize int           `yaml:"max_batch_size"`
	OnQueueFull  string        `yaml:"on_queue_full"` // "drop_oldest", "drop_newest"
	IdleSleep    time.Duration `yaml:"-"`             // decode loop backoff when the queue is empty
}
