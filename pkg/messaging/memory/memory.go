// Package memory is an in-process FIFO notification queue. It is shared only
// by the goroutines of a single process.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultCapacity = 1024

var (
	ErrQueueFull = errors.New("memory queue is full")
	ErrClosed    = errors.New("memory queue is closed")
)

type Queue struct {
	name   string
	ch     chan []byte
	seq    atomic.Int64
	mu     sync.RWMutex
	closed bool
}

func New(name string, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		name: name,
		ch:   make(chan []byte, capacity),
	}
}

func (q *Queue) Name() string {
	return q.name
}

// Enqueue never blocks; a full queue is an error.
func (q *Queue) Enqueue(_ context.Context, payload []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}

	msg := make([]byte, len(payload))
	copy(msg, payload)

	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue waits up to timeout for a message. ok is false when none arrived.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return nil, false, ErrClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-q.ch:
		return msg, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// NextID hands out process-local notification ids.
func (q *Queue) NextID(_ context.Context) (int64, error) {
	return q.seq.Add(1), nil
}

func (q *Queue) Len() int {
	return len(q.ch)
}

// Depth is Len in the shape the queue monitor samples.
func (q *Queue) Depth(_ context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

func (q *Queue) Degraded() bool {
	return false
}

func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
