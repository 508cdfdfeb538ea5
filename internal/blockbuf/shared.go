package blockbuf

import "sync/atomic"

// Shared is a Buffer with an atomic reference count. A block's input buffer is
// referenced by the job that owns it and, when large enough, by the next job
// that reads it as dictionary. Storage returns to the pool when the last
// reference is released.
type Shared struct {
	buf  *Buffer
	refs atomic.Int32
}

// NewShared wraps buf with a reference count of one
func NewShared(buf *Buffer) *Shared {
	s := &Shared{buf: buf}
	s.refs.Store(1)
	return s
}

// Buffer exposes the underlying buffer
func (s *Shared) Buffer() *Buffer { return s.buf }

// Acquire adds a reference and returns s
func (s *Shared) Acquire() *Shared {
	if s.refs.Add(1) <= 1 {
		panic("blockbuf: acquire on released shared buffer")
	}
	return s
}

// Release drops a reference; the last one returns storage to the pool
func (s *Shared) Release() {
	switch n := s.refs.Add(-1); {
	case n == 0:
		s.buf.Release()
	case n < 0:
		panic("blockbuf: shared buffer over-released")
	}
}

// Refs reports the current reference count
func (s *Shared) Refs() int32 { return s.refs.Load() }

// Window returns up to size bytes ending at end, read from the backing array.
// Cursors are ignored because the owning job may be consuming the buffer
// concurrently; the bytes below end are never rewritten while referenced.
func (s *Shared) Window(end, size int) []byte {
	raw := s.buf.Raw()
	if end > len(raw) {
		end = len(raw)
	}
	return raw[max(0, end-size):end]
}
