// pkg/compress/sink.go
package compress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/creativeyann17/go-pflate/internal/checksum"
	"github.com/creativeyann17/go-pflate/internal/format"
	"go.uber.org/zap"
)

// sink is the single goroutine that owns the output stream. It takes
// completed jobs strictly in sequence order.
type sink struct {
	w        io.Writer
	format   format.Format
	header   []byte
	checksum checksum.Kind
	reorder  *reorderBuffer
	slots    <-chan struct{}
	progress ProgressCallback
	log      *zap.Logger

	// written by the sink goroutine only
	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
	sum      atomic.Uint32
	blocks   atomic.Int64

	mu      sync.Mutex
	next    int64
	advance chan struct{}
}

func newSink(w io.Writer, opts *Options, reorder *reorderBuffer, slots <-chan struct{}) *sink {
	s := &sink{
		w:        w,
		format:   opts.Format,
		header:   opts.Format.Header(opts.Level, opts.Strategy == StrategyHuffmanOnly),
		checksum: opts.Format.Checksum(),
		reorder:  reorder,
		slots:    slots,
		progress: opts.Progress,
		log:      opts.Logger,
		advance:  make(chan struct{}),
	}
	s.sum.Store(s.checksum.Initial())
	return s
}

// run writes jobs in order until the last block is out or ctx is cancelled
func (s *sink) run(ctx context.Context) error {
	for {
		j, ok := s.reorder.take(s.nextSeq())
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-s.reorder.ready:
				continue
			}
		}

		if ctx.Err() != nil {
			j.release()
			return nil
		}

		last := j.last
		err := s.write(j)
		j.release()
		<-s.slots
		if err != nil {
			return err
		}
		if last {
			s.log.Debug("trailer written",
				zap.Uint64("bytes_in", s.bytesIn.Load()),
				zap.Uint64("bytes_out", s.bytesOut.Load()),
				zap.Uint32("checksum", s.sum.Load()),
			)
			return nil
		}
	}
}

func (s *sink) write(j *job) error {
	if j.seq == 0 && len(s.header) > 0 {
		if err := s.emit(s.header); err != nil {
			return fmt.Errorf("write %s header: %w", s.format, err)
		}
	}

	if err := s.emit(j.out.Bytes()); err != nil {
		return fmt.Errorf("write block %d: %w", j.seq, err)
	}

	total := s.bytesIn.Add(uint64(j.rawLen))
	if j.rawLen > 0 {
		s.sum.Store(s.checksum.Combine(s.sum.Load(), j.sum, int64(j.rawLen)))
	}

	if j.last {
		if trailer := s.format.Trailer(s.sum.Load(), total); len(trailer) > 0 {
			if err := s.emit(trailer); err != nil {
				return fmt.Errorf("write %s trailer: %w", s.format, err)
			}
		}
	}

	s.blocks.Add(1)
	s.advanceTo(j.seq + 1)

	if s.progress != nil {
		s.progress(ProgressEvent{
			Type:           EventFileProgress,
			Current:        s.blocks.Load(),
			CurrentBytes:   total,
			CompressedSize: s.bytesOut.Load(),
		})
	}
	return nil
}

func (s *sink) emit(p []byte) error {
	n, err := s.w.Write(p)
	s.bytesOut.Add(uint64(n))
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}

func (s *sink) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// advanceTo records progress and wakes every flush waiter
func (s *sink) advanceTo(next int64) {
	s.mu.Lock()
	s.next = next
	close(s.advance)
	s.advance = make(chan struct{})
	s.mu.Unlock()
}

// wait blocks until the block with sequence seq has been written
func (s *sink) wait(ctx context.Context, seq int64) error {
	for {
		s.mu.Lock()
		if s.next > seq {
			s.mu.Unlock()
			return nil
		}
		ch := s.advance
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *sink) stats() Stats {
	return Stats{
		BytesIn:  s.bytesIn.Load(),
		BytesOut: s.bytesOut.Load(),
		Blocks:   s.blocks.Load(),
		Checksum: s.sum.Load(),
	}
}
