// pkg/compress/dictionary.go
package compress

import "github.com/creativeyann17/go-pflate/internal/blockbuf"

// dictChain carries the trailing window of each block to the next one.
// It runs on the coordinator only, before the job is queued.
type dictChain struct {
	pool blockbuf.Pool
	next *blockbuf.Shared
	end  int
}

// attach hands the pending dictionary to j and derives the one for the block after j.
// The job takes ownership of the reference it receives.
func (c *dictChain) attach(j *job) {
	j.dict, j.dictEnd = c.next, c.end
	c.next, c.end = nil, 0

	if j.last {
		return
	}

	in := j.in.Buffer()
	n := in.Len()
	if n >= blockbuf.WindowSize {
		c.next = j.in.Acquire()
		c.end = in.End()
		return
	}

	// short block: previous tail followed by this block, at most one window
	buf := blockbuf.New(c.pool, blockbuf.WindowSize)
	if j.dict != nil {
		buf.Write(j.dict.Window(j.dictEnd, blockbuf.WindowSize-n), false)
	}
	buf.Write(in.Bytes(), false)
	c.next = blockbuf.NewShared(buf)
	c.end = buf.End()
}

// reset drops any pending dictionary
func (c *dictChain) reset() {
	if c.next != nil {
		c.next.Release()
		c.next = nil
	}
	c.end = 0
}
