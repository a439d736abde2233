package history

import "sync"

const (
	MinCapacity     = 120
	MaxCapacity     = 1200
	DefaultCapacity = 1200
)

// Buffer is a fixed-capacity FIFO of float64 samples.
type Buffer struct {
	data  []float64
	start int
	size  int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest sample when full.
func (b *Buffer) Push(v float64) {
	capacity := len(b.data)
	if b.size < capacity {
		b.data[(b.start+b.size)%capacity] = v
		b.size++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % capacity
}

func (b *Buffer) Len() int { return b.size }

func (b *Buffer) Cap() int { return len(b.data) }

// Values returns the samples oldest first.
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.size)
	capacity := len(b.data)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.start+i)%capacity]
	}
	return out
}

func (b *Buffer) Last() (float64, bool) {
	if b.size == 0 {
		return 0, false
	}
	return b.data[(b.start+b.size-1)%len(b.data)], true
}

// Tracker keeps one Buffer per key.
type Tracker[K comparable] struct {
	mu       sync.Mutex
	capacity int
	buffers  map[K]*Buffer
}

func NewTracker[K comparable](capacity int) *Tracker[K] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker[K]{capacity: capacity, buffers: make(map[K]*Buffer)}
}

// Push records v for key and returns the key's samples oldest first.
func (t *Tracker[K]) Push(key K, v float64) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf, ok := t.buffers[key]
	if !ok {
		buf = NewBuffer(t.capacity)
		t.buffers[key] = buf
	}
	buf.Push(v)
	return buf.Values()
}

func (t *Tracker[K]) Values(key K) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf, ok := t.buffers[key]
	if !ok {
		return nil
	}
	return buf.Values()
}

func (t *Tracker[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffers)
}

func (t *Tracker[K]) Capacity() int { return t.capacity }
