package messaging

import (
	"context"
	"time"
)

// Degraded is the transport used when no backing is available. Enqueue
// discards and Dequeue reports an empty queue immediately.
type Degraded struct{}

func (Degraded) Enqueue(context.Context, []byte) error {
	return nil
}

func (Degraded) Dequeue(context.Context, time.Duration) ([]byte, bool, error) {
	return nil, false, nil
}

func (Degraded) Degraded() bool {
	return true
}

func (Degraded) Close() error {
	return nil
}
