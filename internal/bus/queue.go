package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded, non-blocking message queue. When full, the oldest
// message is discarded to make room for the newest.
type Queue struct {
	mu      sync.Mutex
	ch      chan string
	closed  bool
	dropped atomic.Uint64
	onDrop  func()
}

func NewQueue(capacity int, onDrop func()) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	if onDrop == nil {
		onDrop = func() {}
	}
	return &Queue{ch: make(chan string, capacity), onDrop: onDrop}
}

// Push enqueues msg without blocking. It reports whether an older message was
// dropped to make room.
func (q *Queue) Push(msg string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, ErrQueueClosed
	}
	dropped := false
	for {
		select {
		case q.ch <- msg:
			return dropped, nil
		default:
		}
		select {
		case <-q.ch:
			dropped = true
			q.dropped.Add(1)
			q.onDrop()
		default:
		}
	}
}

// C is drained by the consumer. It is closed by Close.
func (q *Queue) C() <-chan string {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}

func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Feed pushes everything from in until in closes or ctx is done, then closes
// the queue.
func (q *Queue) Feed(ctx context.Context, in <-chan string) {
	defer q.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			if _, err := q.Push(msg); err != nil {
				return
			}
		}
	}
}
