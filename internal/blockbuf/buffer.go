// Package blockbuf provides the pooled, cursor-tracked byte buffers that carry
// input blocks, compressed output and dictionary windows through the pipeline.
package blockbuf

import "errors"

// WindowSize is the DEFLATE maximum back-reference distance
const WindowSize = 32 * 1024

// MaxCapacity bounds buffer growth. A block that cannot be compressed into this
// many bytes is treated as an allocation failure.
const MaxCapacity = 1 << 30

var maxCapacity = MaxCapacity

var (
	// ErrTooLarge is returned when growth would exceed MaxCapacity
	ErrTooLarge = errors.New("blockbuf: buffer too large")

	// ErrReleased is returned when a released buffer is used again
	ErrReleased = errors.New("blockbuf: use of released buffer")
)

// Buffer is a fixed-capacity byte buffer. The readable region is data[start:end]
// and the writable region is data[end:cap].
type Buffer struct {
	data  []byte
	start int
	end   int
	pool  Pool
}

// New draws a buffer of the given capacity from pool (DefaultPool when nil)
func New(pool Pool, capacity int) *Buffer {
	if pool == nil {
		pool = DefaultPool()
	}
	return &Buffer{
		data: pool.Get(capacity),
		pool: pool,
	}
}

// Write appends p. When room runs out it grows if allowGrow is set, otherwise it
// stores what fits and reports the count; callers loop until p is consumed.
func (b *Buffer) Write(p []byte, allowGrow bool) (int, error) {
	if b.data == nil {
		return 0, ErrReleased
	}
	if allowGrow && len(p) > b.Free() {
		if err := b.Grow(len(p) - b.Free()); err != nil {
			return 0, err
		}
	}
	n := copy(b.data[b.end:], p)
	b.end += n
	return n, nil
}

// Grow enlarges the buffer by at least extra bytes of free space, preserving
// content and cursors. Capacity increases by at least half, and never by less
// than one window.
func (b *Buffer) Grow(extra int) error {
	if b.data == nil {
		return ErrReleased
	}
	step := max(len(b.data)/2, WindowSize, extra)
	newCap := len(b.data) + step
	if newCap > maxCapacity || newCap < len(b.data) {
		return ErrTooLarge
	}

	grown := b.pool.Get(newCap)
	copy(grown, b.data[:b.end])
	b.pool.Put(b.data)
	b.data = grown
	return nil
}

// Bytes returns the readable region. It aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data[b.start:b.end] }

// Available returns the writable region. Pair with Commit.
func (b *Buffer) Available() []byte { return b.data[b.end:] }

// Commit marks n bytes of Available as written
func (b *Buffer) Commit(n int) {
	if n < 0 || b.end+n > len(b.data) {
		panic("blockbuf: commit out of range")
	}
	b.end += n
}

// Consume advances the read cursor by n bytes
func (b *Buffer) Consume(n int) {
	if n < 0 || b.start+n > b.end {
		panic("blockbuf: consume out of range")
	}
	b.start += n
}

// Raw returns the whole backing array regardless of cursors
func (b *Buffer) Raw() []byte { return b.data }

func (b *Buffer) Len() int { return b.end - b.start }
func (b *Buffer) Cap() int { return len(b.data) }
func (b *Buffer) Free() int { return len(b.data) - b.end }
func (b *Buffer) Start() int { return b.start }
func (b *Buffer) End() int { return b.end }
func (b *Buffer) IsEmpty() bool { return b.end == b.start }
func (b *Buffer) IsFull() bool { return b.end == len(b.data) }

// Clear resets both cursors to zero
func (b *Buffer) Clear() {
	b.start, b.end = 0, 0
}

// Release returns the storage to the pool. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	if b.data == nil {
		return
	}
	b.pool.Put(b.data)
	b.data = nil
	b.start, b.end = 0, 0
}
