// pkg/compress/worker.go
package compress

import (
	"context"
	"fmt"

	"github.com/creativeyann17/go-pflate/internal/blockbuf"
	"github.com/creativeyann17/go-pflate/internal/checksum"
	"github.com/creativeyann17/go-pflate/internal/codec"
	"go.uber.org/zap"
)

// Test hooks. newSession builds a worker's codec session; afterBlock runs
// once a block is compressed, before it is handed to the sink.
var (
	newSession = codec.New
	afterBlock func(seq int64)
)

// emptyStaticBlock is a complete fixed-Huffman block with no symbols:
// BFINAL=0, BTYPE=01 and the 7-bit end-of-block code
const (
	emptyStaticBlockBits  = 10
	emptyStaticBlockValue = 2
)

// worker owns one codec session for the lifetime of the stream
type worker struct {
	id       int
	session  codec.Session
	level    int
	strategy codec.Strategy
	checksum checksum.Kind
	log      *zap.Logger
}

func newWorker(id int, opts *Options) (*worker, error) {
	s, err := newSession(opts.Codec, opts.Level, opts.Strategy)
	if err != nil {
		return nil, fmt.Errorf("create %s session: %w", opts.Codec, err)
	}
	return &worker{
		id:       id,
		session:  s,
		level:    opts.Level,
		strategy: opts.Strategy,
		checksum: opts.Format.Checksum(),
		log:      opts.Logger.With(zap.Int("worker", id)),
	}, nil
}

// run compresses jobs until an EOF job arrives or ctx is cancelled
func (w *worker) run(ctx context.Context, jobs <-chan *job, done func(*job)) error {
	defer w.session.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-jobs:
			if j.isEOF() {
				w.log.Debug("worker stopping")
				return nil
			}
			if err := w.compress(j); err != nil {
				j.release()
				return err
			}
			if afterBlock != nil {
				afterBlock(j.seq)
			}
			done(j)
		}
	}
}

// compress encodes one block so that its output can be appended directly
// after the previous block's output
func (w *worker) compress(j *job) error {
	s := w.session
	if err := s.Reset(); err != nil {
		return &BlockError{Seq: j.seq, Err: err}
	}
	if err := s.SetParams(w.level, w.strategy); err != nil {
		return &BlockError{Seq: j.seq, Err: err}
	}

	if j.dict != nil {
		if err := s.SetDictionary(j.dict.Window(j.dictEnd, blockbuf.WindowSize)); err != nil {
			return &BlockError{Seq: j.seq, Err: err}
		}
	}

	raw := j.in.Buffer().Bytes()
	j.rawLen = len(raw)
	if len(raw) > 0 {
		j.sum = w.checksum.Sum(raw)
	}

	if j.last {
		if err := w.deflate(j, raw, codec.FinishFlush); err != nil {
			return err
		}
	} else if err := w.deflateAligned(j, raw); err != nil {
		return err
	}

	// the session copied what it needed; the dictionary and input may be recycled
	j.releaseInput()

	w.log.Debug("block compressed",
		zap.Int64("seq", j.seq),
		zap.Int("in", j.rawLen),
		zap.Int("out", j.out.Len()),
		zap.Bool("last", j.last),
	)
	return nil
}

// deflateAligned ends a non-final block on a byte boundary without
// marking the stream final
func (w *worker) deflateAligned(j *job, raw []byte) error {
	if err := w.deflate(j, raw, codec.BlockFlush); err != nil {
		return err
	}

	bits, err := w.session.Pending()
	if err != nil {
		return &BlockError{Seq: j.seq, Err: err}
	}

	// parity rule: odd pending bits take a sync flush, even counts take empty static blocks
	switch {
	case bits&1 == 1:
		return w.deflate(j, nil, codec.SyncFlush)
	case bits&7 != 0:
		// each empty static block adds 10 bits, so an even count reaches a boundary
		for bits&7 != 0 {
			if err := w.session.Prime(emptyStaticBlockBits, emptyStaticBlockValue); err != nil {
				return &BlockError{Seq: j.seq, Err: err}
			}
			if bits, err = w.session.Pending(); err != nil {
				return &BlockError{Seq: j.seq, Err: err}
			}
		}
		return w.deflate(j, nil, codec.BlockFlush)
	}
	return nil
}

// deflate runs the session until src is consumed and the flush completes,
// growing the output buffer whenever it fills
func (w *worker) deflate(j *job, src []byte, flush codec.Flush) error {
	for {
		if j.out.Free() == 0 {
			if err := j.out.Grow(0); err != nil {
				return &BlockError{Seq: j.seq, Err: err}
			}
		}

		consumed, produced, status, err := w.session.Deflate(j.out.Available(), src, flush)
		j.out.Commit(produced)
		src = src[consumed:]
		if err != nil {
			return &BlockError{Seq: j.seq, Err: err}
		}

		if status == codec.StatusBufferFull {
			continue
		}
		if len(src) == 0 && (flush != codec.FinishFlush || status == codec.StatusStreamEnd) {
			return nil
		}
		if consumed == 0 && produced == 0 {
			return &BlockError{Seq: j.seq, Err: fmt.Errorf("%w: %s flush made no progress", codec.ErrStream, flush)}
		}
	}
}
