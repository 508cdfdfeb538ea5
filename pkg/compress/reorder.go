// pkg/compress/reorder.go
package compress

import "sync"

// reorderBuffer holds completed jobs until the sink can take them in sequence order
type reorderBuffer struct {
	mu      sync.Mutex
	pending map[int64]*job
	ready   chan struct{}
}

func newReorderBuffer() *reorderBuffer {
	return &reorderBuffer{
		pending: make(map[int64]*job),
		ready:   make(chan struct{}, 1),
	}
}

// insert stores a completed job and wakes the sink
func (r *reorderBuffer) insert(j *job) {
	r.mu.Lock()
	r.pending[j.seq] = j
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// take removes the job with the given sequence number, if it has arrived
func (r *reorderBuffer) take(seq int64) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.pending[seq]
	if ok {
		delete(r.pending, seq)
	}
	return j, ok
}

func (r *reorderBuffer) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// drain empties the buffer and returns what it held
func (r *reorderBuffer) drain() []*job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]*job, 0, len(r.pending))
	for seq, j := range r.pending {
		jobs = append(jobs, j)
		delete(r.pending, seq)
	}
	return jobs
}
