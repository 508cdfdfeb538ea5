package blockbuf

import "sync"

// Pool hands out byte slices of an exact capacity and takes them back for reuse.
// Implementations must be safe for concurrent use.
type Pool interface {
	Get(size int) []byte
	Put(buf []byte)
}

// SizedPool is the default Pool: one sync.Pool per requested capacity.
// Block sizes in a stream are few (input block, output block, window), so the
// number of distinct classes stays small.
type SizedPool struct {
	mu      sync.RWMutex
	classes map[int]*sync.Pool
}

// NewPool creates an empty SizedPool
func NewPool() *SizedPool {
	return &SizedPool{classes: make(map[int]*sync.Pool)}
}

var defaultPool = NewPool()

// DefaultPool returns the process-wide pool used when no pool is configured
func DefaultPool() Pool {
	return defaultPool
}

func (p *SizedPool) class(size int) *sync.Pool {
	p.mu.RLock()
	sp, ok := p.classes[size]
	p.mu.RUnlock()
	if ok {
		return sp
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if sp, ok = p.classes[size]; ok {
		return sp
	}
	sp = &sync.Pool{
		New: func() any {
			buf := make([]byte, size)
			return &buf
		},
	}
	p.classes[size] = sp
	return sp
}

// Get returns a slice with len == cap == size. Contents are undefined.
func (p *SizedPool) Get(size int) []byte {
	buf := *p.class(size).Get().(*[]byte)
	return buf[:size]
}

// Put returns a slice obtained from Get
func (p *SizedPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	p.class(cap(buf)).Put(&buf)
}
