// pkg/compress/writer.go
package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creativeyann17/go-pflate/internal/blockbuf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle stage of a Writer
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFinishing
	StateFinished
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinishing:
		return "finishing"
	case StateFinished:
		return "finished"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats are the running totals of what has reached the sink
type Stats struct {
	BytesIn  uint64 // uncompressed bytes written
	BytesOut uint64 // compressed bytes including header and trailer
	Blocks   int64
	Checksum uint32 // combined checksum so far
}

// CompressionRatio returns the compression ratio as a percentage
func (s Stats) CompressionRatio() float64 {
	if s.BytesIn == 0 {
		return 0
	}
	return float64(s.BytesOut) / float64(s.BytesIn) * 100
}

// Writer compresses everything written to it into one DEFLATE, zlib or gzip
// stream. Input is cut into blocks that are compressed concurrently, each
// primed with the 32 KiB before it, and written to the destination in order.
//
// A Writer is not safe for concurrent use. Close must be called to write the
// final block and trailer; Abort stops the stream and leaves the destination
// holding an invalid partial stream.
type Writer struct {
	opts *Options
	dst  io.Writer
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	jobs    chan *job
	slots   chan struct{}
	reorder *reorderBuffer
	sink    *sink
	dicts   dictChain

	cur   *blockbuf.Buffer
	seq   int64
	state atomic.Int32

	errMu sync.Mutex
	err   error
}

// NewWriter starts the workers and the sink goroutine for a new stream.
// opts may be nil; it is copied, so the caller may reuse it.
func NewWriter(w io.Writer, opts *Options) (*Writer, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if err := o.Validate(); err != nil {
		return nil, err
	}

	workers := make([]*worker, 0, o.Workers)
	for i := 0; i < o.Workers; i++ {
		wk, err := newWorker(i, &o)
		if err != nil {
			for _, started := range workers {
				started.session.Close()
			}
			return nil, err
		}
		workers = append(workers, wk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	zw := &Writer{
		opts:    &o,
		dst:     w,
		log:     o.Logger,
		ctx:     ctx,
		cancel:  cancel,
		group:   group,
		jobs:    make(chan *job, o.MaxInFlight+o.Workers),
		slots:   make(chan struct{}, o.MaxInFlight),
		reorder: newReorderBuffer(),
		dicts:   dictChain{pool: o.Pool},
	}
	zw.sink = newSink(w, &o, zw.reorder, zw.slots)

	for _, wk := range workers {
		group.Go(func() error {
			return zw.check(wk.run(gctx, zw.jobs, zw.reorder.insert))
		})
	}
	group.Go(func() error {
		return zw.check(zw.sink.run(gctx))
	})

	zw.log.Debug("stream started",
		zap.Stringer("format", o.Format),
		zap.Stringer("codec", o.Codec),
		zap.Int("level", o.Level),
		zap.Int("block_size", o.BlockSize),
		zap.Int("workers", o.Workers),
		zap.Int("max_in_flight", o.MaxInFlight),
	)
	return zw, nil
}

// check records err as the stream failure if it is the first one
func (w *Writer) check(err error) error {
	if err == nil {
		return nil
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
		w.log.Error("stream failed", zap.Error(err))
	}
	w.errMu.Unlock()
	w.cancel()
	return err
}

func (w *Writer) failure() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// State returns the current lifecycle stage
func (w *Writer) State() State {
	return State(w.state.Load())
}

// Stats returns the totals of what has been written to the destination so far
func (w *Writer) Stats() Stats {
	return w.sink.stats()
}

func (w *Writer) usable() error {
	switch w.State() {
	case StateFinishing, StateFinished:
		return ErrClosed
	case StateAborted:
		return ErrAborted
	}
	if err := w.failure(); err != nil {
		return err
	}
	w.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
	return nil
}

// Write buffers p and queues every block it fills. It blocks only while
// MaxInFlight blocks are pending, and at most WriteTimeout when that is set.
// On ErrWriteTimeout the returned count of bytes is buffered and nothing is lost.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.usable(); err != nil {
		return 0, err
	}

	n := 0
	for len(p) > 0 {
		block := w.block()
		if block.IsFull() {
			if err := w.emit(false, w.opts.WriteTimeout); err != nil {
				return n, err
			}
			continue
		}
		k, _ := block.Write(p, false)
		n += k
		p = p[k:]
	}
	return n, nil
}

// EndBlock queues the buffered input as its own block without waiting for
// it to be written. Writes that follow start a new block.
func (w *Writer) EndBlock() error {
	if err := w.usable(); err != nil {
		return err
	}
	if w.cur == nil || w.cur.IsEmpty() {
		return nil
	}
	return w.emit(false, w.opts.WriteTimeout)
}

// Flush queues the buffered input and waits until everything written so far
// has reached the destination. The output is then a decodable prefix of the
// stream.
func (w *Writer) Flush() error {
	if err := w.usable(); err != nil {
		return err
	}
	if w.cur != nil && !w.cur.IsEmpty() {
		if err := w.emit(false, 0); err != nil {
			return err
		}
	}
	if w.seq == 0 {
		return nil
	}
	if err := w.sink.wait(w.ctx, w.seq-1); err != nil {
		return w.stopped()
	}
	return w.failure()
}

// Close writes the final block and trailer, waits for every goroutine to
// exit and closes the destination unless LeaveOpen is set.
func (w *Writer) Close() error {
	switch w.State() {
	case StateFinishing, StateFinished:
		return ErrClosed
	case StateAborted:
		return ErrAborted
	}
	w.state.Store(int32(StateFinishing))

	if err := w.failure(); err != nil {
		w.shutdown()
		return err
	}

	w.block()
	if err := w.emit(true, 0); err != nil {
		w.shutdown()
		return err
	}
	for i := 0; i < w.opts.Workers; i++ {
		w.jobs <- eofJob()
	}

	err := w.group.Wait()
	if ferr := w.failure(); ferr != nil {
		err = ferr
	}
	if err != nil {
		w.shutdown()
		return err
	}
	w.cancel()
	w.state.Store(int32(StateFinished))

	stats := w.Stats()
	w.log.Debug("stream finished",
		zap.Uint64("bytes_in", stats.BytesIn),
		zap.Uint64("bytes_out", stats.BytesOut),
		zap.Int64("blocks", stats.Blocks),
	)

	if c, ok := w.dst.(io.Closer); ok && !w.opts.LeaveOpen {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close destination: %w", err)
		}
	}
	return nil
}

// Abort stops the workers and the sink after the block each is handling,
// releases all queued buffers and marks the stream aborted. Bytes already
// written to the destination do not form a valid stream. It returns the
// background error that stopped the stream, if any.
func (w *Writer) Abort() error {
	switch w.State() {
	case StateFinished, StateAborted:
		return nil
	}
	w.cancel()
	w.shutdown()
	w.log.Debug("stream aborted", zap.Int64("blocks_queued", w.seq))

	if err := w.failure(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// block returns the block being filled, starting a new one if needed
func (w *Writer) block() *blockbuf.Buffer {
	if w.cur == nil {
		w.cur = blockbuf.New(w.opts.Pool, w.opts.BlockSize)
	}
	return w.cur
}

// emit turns the current block into a job, gives it its dictionary and queues it
func (w *Writer) emit(last bool, timeout time.Duration) error {
	if err := w.acquire(timeout); err != nil {
		return err
	}

	j := &job{
		seq:  w.seq,
		in:   blockbuf.NewShared(w.block()),
		out:  blockbuf.New(w.opts.Pool, w.opts.outputCapacity()),
		last: last,
	}
	w.cur = nil
	w.dicts.attach(j)
	w.seq++

	// never blocks: the channel has room for every slot plus the EOF jobs
	w.jobs <- j
	return nil
}

// acquire takes an in-flight slot, waiting at most timeout when it is positive
func (w *Writer) acquire(timeout time.Duration) error {
	select {
	case w.slots <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case w.slots <- struct{}{}:
		return nil
	case <-w.ctx.Done():
		return w.stopped()
	case <-expired:
		return ErrWriteTimeout
	}
}

// stopped explains why the pipeline context ended
func (w *Writer) stopped() error {
	if err := w.failure(); err != nil {
		return err
	}
	return ErrAborted
}

// shutdown cancels and joins every goroutine, then returns all buffers still queued
func (w *Writer) shutdown() {
	w.cancel()
	_ = w.group.Wait()
	w.state.Store(int32(StateAborted))

drain:
	for {
		select {
		case j := <-w.jobs:
			j.release()
		default:
			break drain
		}
	}
	for _, j := range w.reorder.drain() {
		j.release()
	}
	w.dicts.reset()
	if w.cur != nil {
		w.cur.Release()
		w.cur = nil
	}
}
