// uartline/ringbuffer.go

package uartline

import "sync/atomic"

// DefaultBufferSize is the RX ring capacity used when Config.BufferSize is zero.
const DefaultBufferSize = 512

// RingBuffer is a fixed-capacity single-producer/single-consumer byte ring.
// The producer (the RX interrupt) only ever advances head and the consumer
// only ever advances tail. One slot is kept free so that head == tail always
// means empty; a ring of size N holds at most N-1 bytes.
type RingBuffer struct {
	buf  []byte
	head atomic.Uint32 // next slot to write
	tail atomic.Uint32 // next slot to read
}

// NewRingBuffer returns a ring with size slots. Sizes below 2 are raised to 2.
func NewRingBuffer(size int) *RingBuffer {
	if size < 2 {
		size = 2
	}
	return &RingBuffer{buf: make([]byte, size)}
}

// Size returns the number of slots, one more than the usable capacity.
func (rb *RingBuffer) Size() int {
	return len(rb.buf)
}

// Used returns how many bytes are currently stored.
func (rb *RingBuffer) Used() int {
	h, t := int(rb.head.Load()), int(rb.tail.Load())
	if h >= t {
		return h - t
	}
	return len(rb.buf) - t + h
}

// Free returns how many more bytes can be pushed before the ring is full.
func (rb *RingBuffer) Free() int {
	return len(rb.buf) - 1 - rb.Used()
}

// IsEmpty reports head == tail.
func (rb *RingBuffer) IsEmpty() bool {
	return rb.head.Load() == rb.tail.Load()
}

// IsFull reports whether advancing head would make it equal to tail.
func (rb *RingBuffer) IsFull() bool {
	return rb.next(rb.head.Load()) == rb.tail.Load()
}

// Push stores val at head and advances head. The caller must have checked
// IsFull; pushing into a full ring makes it read as empty.
func (rb *RingBuffer) Push(val byte) {
	h := rb.head.Load()
	rb.buf[h] = val           // 1) write data
	rb.head.Store(rb.next(h)) // 2) publish
}

// Pop reads the byte at tail and advances tail. The caller must have checked
// IsEmpty; popping an empty ring returns stale data.
func (rb *RingBuffer) Pop() byte {
	t := rb.tail.Load()
	v := rb.buf[t]            // 1) read current element
	rb.tail.Store(rb.next(t)) // 2) publish consumption
	return v
}

// Put stores a byte if there is room. It returns false when the ring is full.
func (rb *RingBuffer) Put(val byte) bool {
	if rb.IsFull() {
		return false
	}
	rb.Push(val)
	return true
}

// Get returns the oldest byte, or (0, false) when the ring is empty.
func (rb *RingBuffer) Get() (byte, bool) {
	if rb.IsEmpty() {
		return 0, false
	}
	return rb.Pop(), true
}

// Clear resets head and tail to zero. Neither side may be running.
func (rb *RingBuffer) Clear() {
	rb.head.Store(0)
	rb.tail.Store(0)
}

func (rb *RingBuffer) next(i uint32) uint32 {
	i++
	if i == uint32(len(rb.buf)) {
		return 0
	}
	return i
}
