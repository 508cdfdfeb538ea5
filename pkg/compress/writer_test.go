// pkg/compress/writer_test.go
package compress

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/adler32"
	"hash/crc32"
	"io"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creativeyann17/go-pflate/internal/codec"
	"github.com/creativeyann17/go-pflate/internal/format"
	kgzip "github.com/klauspost/compress/gzip"
)

const paragraph = "The quick brown fox jumps over the lazy dog. Parallel workers compress " +
	"independent blocks while a single writer keeps the output in order. "

// testData mixes repetitive text with random runs so both matches and literals occur
func testData(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	var b bytes.Buffer
	for b.Len() < n {
		if r.Intn(4) == 0 {
			run := make([]byte, r.Intn(2000))
			r.Read(run)
			b.Write(run)
		} else {
			b.WriteString(paragraph[r.Intn(40):])
		}
	}
	return b.Bytes()[:n]
}

func testOptions(f format.Format, workers, blockSize int, kind codec.Kind) *Options {
	opts := DefaultOptions()
	opts.Format = f
	opts.Workers = workers
	opts.BlockSize = blockSize
	opts.Codec = kind
	return opts
}

// compressAll writes data in chunks of the given sizes (cycled) and closes the stream
func compressAll(t *testing.T, data []byte, opts *Options, sizes ...int) ([]byte, Stats) {
	t.Helper()
	var out bytes.Buffer
	zw, err := NewWriter(&out, opts)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	if len(sizes) == 0 {
		sizes = []int{len(data) + 1}
	}
	for i := 0; len(data) > 0; i++ {
		n := min(sizes[i%len(sizes)], len(data))
		written, err := zw.Write(data[:n])
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if written != n {
			t.Fatalf("Short write: %d of %d", written, n)
		}
		data = data[n:]
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if zw.State() != StateFinished {
		t.Fatalf("Expected state finished, got %s", zw.State())
	}
	return out.Bytes(), zw.Stats()
}

func decode(t *testing.T, f format.Format, data []byte) []byte {
	t.Helper()
	var r io.ReadCloser
	var err error
	switch f {
	case format.FormatGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case format.FormatZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	default:
		r = flate.NewReader(bytes.NewReader(data))
	}
	if err != nil {
		t.Fatalf("Failed to open %s reader: %v", f, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to decode %s stream: %v", f, err)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	data := testData(700*1024+13, 1)
	formats := []format.Format{format.FormatRaw, format.FormatZlib, format.FormatGzip}
	kinds := []codec.Kind{codec.KindFlate, codec.KindBitStream}

	for _, kind := range kinds {
		for _, f := range formats {
			for _, workers := range []int{1, 2, 4, 8} {
				for _, blockSize := range []int{MinBlockSize, 200*1024 + 7} {
					name := fmt.Sprintf("%s/%s/W%d/B%d", kind, f, workers, blockSize)
					t.Run(name, func(t *testing.T) {
						out, stats := compressAll(t, data, testOptions(f, workers, blockSize, kind), 64*1024)
						if got := decode(t, f, out); !bytes.Equal(got, data) {
							t.Fatalf("Round trip mismatch: got %d bytes, want %d", len(got), len(data))
						}
						if stats.BytesIn != uint64(len(data)) {
							t.Errorf("BytesIn = %d, want %d", stats.BytesIn, len(data))
						}
						if stats.BytesOut != uint64(len(out)) {
							t.Errorf("BytesOut = %d, want %d", stats.BytesOut, len(out))
						}
					})
				}
			}
		}
	}
}

func TestLevelsAndStrategies(t *testing.T) {
	data := testData(300*1024, 2)
	for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
		for _, level := range []int{0, 1, 5, 9} {
			for _, strategy := range []Strategy{StrategyDefault, StrategyHuffmanOnly} {
				t.Run(fmt.Sprintf("%s/L%d/S%d", kind, level, strategy), func(t *testing.T) {
					opts := testOptions(format.FormatGzip, 3, MinBlockSize, kind)
					opts.Level = level
					opts.Strategy = strategy
					out, _ := compressAll(t, data, opts)
					if !bytes.Equal(decode(t, format.FormatGzip, out), data) {
						t.Fatal("Round trip mismatch")
					}
				})
			}
		}
	}
}

func TestChecksumDeterminism(t *testing.T) {
	data := testData(900*1024, 3)
	wantCRC := crc32.ChecksumIEEE(data)
	wantAdler := adler32.Checksum(data)

	for _, workers := range []int{1, 3, 8} {
		for _, blockSize := range []int{MinBlockSize, 333 * 1024} {
			gz, gzStats := compressAll(t, data, testOptions(format.FormatGzip, workers, blockSize, codec.KindFlate), 10000)
			if got := binary.LittleEndian.Uint32(gz[len(gz)-8:]); got != wantCRC {
				t.Errorf("W%d B%d: gzip CRC-32 %08x, want %08x", workers, blockSize, got, wantCRC)
			}
			if got := binary.LittleEndian.Uint32(gz[len(gz)-4:]); got != uint32(len(data)) {
				t.Errorf("W%d B%d: gzip ISIZE %d, want %d", workers, blockSize, got, len(data))
			}
			if gzStats.Checksum != wantCRC {
				t.Errorf("W%d B%d: Stats checksum %08x, want %08x", workers, blockSize, gzStats.Checksum, wantCRC)
			}

			zl, _ := compressAll(t, data, testOptions(format.FormatZlib, workers, blockSize, codec.KindBitStream), 10000)
			if got := binary.BigEndian.Uint32(zl[len(zl)-4:]); got != wantAdler {
				t.Errorf("W%d B%d: zlib Adler-32 %08x, want %08x", workers, blockSize, got, wantAdler)
			}
		}
	}
}

// TestOutOfOrderCompletion delays early blocks so later ones reach the
// reorder buffer first
func TestOutOfOrderCompletion(t *testing.T) {
	var mu sync.Mutex
	var order []int64
	afterBlock = func(seq int64) {
		if seq%3 == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		order = append(order, seq)
		mu.Unlock()
	}
	t.Cleanup(func() { afterBlock = nil })

	data := testData(12*MinBlockSize+500, 4)
	for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
		order = nil
		out, stats := compressAll(t, data, testOptions(format.FormatGzip, 4, MinBlockSize, kind))
		if !bytes.Equal(decode(t, format.FormatGzip, out), data) {
			t.Fatalf("%s: round trip mismatch", kind)
		}
		if stats.Blocks != 13 {
			t.Errorf("%s: expected 13 blocks, got %d", kind, stats.Blocks)
		}
		mu.Lock()
		if sort.SliceIsSorted(order, func(i, j int) bool { return order[i] < order[j] }) {
			t.Errorf("%s: blocks completed in order %v, expected reordering", kind, order)
		}
		mu.Unlock()
	}
}

func TestEmptyInput(t *testing.T) {
	for _, f := range []format.Format{format.FormatRaw, format.FormatZlib, format.FormatGzip} {
		for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
			out, stats := compressAll(t, nil, testOptions(f, 2, MinBlockSize, kind))
			if len(out) < f.HeaderSize()+1 {
				t.Fatalf("%s/%s: stream too short: % x", f, kind, out)
			}
			if got := decode(t, f, out); len(got) != 0 {
				t.Errorf("%s/%s: expected empty content, got %d bytes", f, kind, len(got))
			}
			if stats.Blocks != 1 {
				t.Errorf("%s/%s: expected a single final block, got %d", f, kind, stats.Blocks)
			}
			if f == format.FormatGzip {
				if !bytes.Equal(out[len(out)-8:], make([]byte, 8)) {
					t.Errorf("%s: expected zero CRC and size, got % x", kind, out[len(out)-8:])
				}
			}
		}
	}
}

// TestSmallFirstBlock cuts blocks shorter than the window so dictionaries
// are assembled from several preceding blocks
func TestSmallFirstBlock(t *testing.T) {
	data := testData(400*1024, 5)
	cuts := []int{10 * 1024, 5 * 1024, 30 * 1024, 1, 40 * 1024}

	for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
		var out bytes.Buffer
		zw, err := NewWriter(&out, testOptions(format.FormatZlib, 4, MinBlockSize, kind))
		if err != nil {
			t.Fatalf("Failed to create writer: %v", err)
		}

		rest := data
		for _, n := range cuts {
			if _, err := zw.Write(rest[:n]); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := zw.EndBlock(); err != nil {
				t.Fatalf("EndBlock failed: %v", err)
			}
			rest = rest[n:]
		}
		if _, err := zw.Write(rest); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		if !bytes.Equal(decode(t, format.FormatZlib, out.Bytes()), data) {
			t.Fatalf("%s: round trip mismatch", kind)
		}
	}
}

func TestExactMultipleOfBlockSize(t *testing.T) {
	data := testData(4*MinBlockSize, 6)
	out, stats := compressAll(t, data, testOptions(format.FormatGzip, 4, MinBlockSize, codec.KindFlate), MinBlockSize)
	if stats.Blocks != 4 {
		t.Errorf("Expected 4 blocks, got %d", stats.Blocks)
	}
	if !bytes.Equal(decode(t, format.FormatGzip, out), data) {
		t.Fatal("Round trip mismatch")
	}
}

func TestGzipOneMiB(t *testing.T) {
	data := bytes.Repeat([]byte(paragraph), 1024*1024/len(paragraph)+1)[:1024*1024]
	out, _ := compressAll(t, data, testOptions(format.FormatGzip, 4, 128*1024, codec.KindFlate))

	if len(out) >= len(data) {
		t.Fatalf("Expected compression, got %d >= %d", len(out), len(data))
	}
	if !bytes.Equal(decode(t, format.FormatGzip, out), data) {
		t.Fatal("compress/gzip round trip mismatch")
	}

	kr, err := kgzip.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to open klauspost gzip reader: %v", err)
	}
	got, err := io.ReadAll(kr)
	if err != nil {
		t.Fatalf("klauspost gzip decode failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("klauspost gzip round trip mismatch")
	}
	t.Logf("1 MiB -> %d bytes (%.1f%%)", len(out), float64(len(out))/float64(len(data))*100)
}

func TestAbort(t *testing.T) {
	afterBlock = func(int64) { time.Sleep(5 * time.Millisecond) }
	t.Cleanup(func() { afterBlock = nil })

	data := testData(2*1024*1024, 7)
	var out bytes.Buffer
	zw, err := NewWriter(&out, testOptions(format.FormatGzip, 4, MinBlockSize, codec.KindFlate))
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if _, err := zw.Write(data[:500*1024]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- zw.Abort() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Abort returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Abort did not return")
	}

	if zw.State() != StateAborted {
		t.Fatalf("Expected state aborted, got %s", zw.State())
	}
	if _, err := zw.Write(data[500*1024:]); !errors.Is(err, ErrAborted) {
		t.Errorf("Write after abort: expected ErrAborted, got %v", err)
	}
	if err := zw.Flush(); !errors.Is(err, ErrAborted) {
		t.Errorf("Flush after abort: expected ErrAborted, got %v", err)
	}
	if err := zw.Close(); !errors.Is(err, ErrAborted) {
		t.Errorf("Close after abort: expected ErrAborted, got %v", err)
	}
}

func TestVariedWriteSizes(t *testing.T) {
	data := testData(3*1024*1024+77, 8)
	r := rand.New(rand.NewSource(9))
	sizes := make([]int, 64)
	for i := range sizes {
		switch r.Intn(3) {
		case 0:
			sizes[i] = 1 + r.Intn(16)
		case 1:
			sizes[i] = 1 + r.Intn(64*1024)
		default:
			sizes[i] = 1 + r.Intn(10*MinBlockSize)
		}
	}

	for _, kind := range []codec.Kind{codec.KindFlate, codec.KindBitStream} {
		out, _ := compressAll(t, data, testOptions(format.FormatGzip, 6, MinBlockSize, kind), sizes...)
		if !bytes.Equal(decode(t, format.FormatGzip, out), data) {
			t.Fatalf("%s: round trip mismatch", kind)
		}
	}
}

func TestFlushProducesDecodablePrefix(t *testing.T) {
	data := testData(300*1024, 10)
	var out bytes.Buffer
	zw, err := NewWriter(&out, testOptions(format.FormatGzip, 4, MinBlockSize, codec.KindBitStream))
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer zw.Close()

	if err := zw.Flush(); err != nil {
		t.Fatalf("Flush before write failed: %v", err)
	}
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := zw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := zw.Stats().BytesIn; got != uint64(len(data)) {
		t.Fatalf("Expected %d bytes written after flush, got %d", len(data), got)
	}

	zr, err := gzip.NewReader(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open gzip reader: %v", err)
	}
	got := make([]byte, len(data))
	if _, err := io.ReadFull(zr, got); err != nil {
		t.Fatalf("Failed to read flushed prefix: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("Flushed prefix mismatch")
	}
}

func TestCloseTwice(t *testing.T) {
	zw, err := NewWriter(io.Discard, nil)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	if zw.State() != StateIdle {
		t.Errorf("Expected idle state, got %s", zw.State())
	}
	if _, err := zw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if zw.State() != StateRunning {
		t.Errorf("Expected running state, got %s", zw.State())
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := zw.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Second Close: expected ErrClosed, got %v", err)
	}
	if _, err := zw.Write([]byte("more")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close: expected ErrClosed, got %v", err)
	}
	if err := zw.Abort(); err != nil {
		t.Errorf("Abort after Close: expected nil, got %v", err)
	}
	if zw.State() != StateFinished {
		t.Errorf("Expected finished state, got %s", zw.State())
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestLeaveOpen(t *testing.T) {
	for _, leaveOpen := range []bool{false, true} {
		dst := &closeRecorder{}
		opts := DefaultOptions()
		opts.LeaveOpen = leaveOpen
		zw, err := NewWriter(dst, opts)
		if err != nil {
			t.Fatalf("Failed to create writer: %v", err)
		}
		zw.Write([]byte(paragraph))
		if err := zw.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if dst.closed == leaveOpen {
			t.Errorf("LeaveOpen=%v: destination closed=%v", leaveOpen, dst.closed)
		}
	}
}

// failingSession breaks after a fixed number of Deflate calls across all workers
type failingSession struct {
	codec.Session
	calls *atomic.Int32
	limit int32
}

func (s *failingSession) Deflate(dst, src []byte, flush codec.Flush) (int, int, codec.Status, error) {
	if s.calls.Add(1) > s.limit {
		return 0, 0, codec.StatusOK, fmt.Errorf("%w: injected", codec.ErrStream)
	}
	return s.Session.Deflate(dst, src, flush)
}

func TestCodecErrorAbortsStream(t *testing.T) {
	var calls atomic.Int32
	newSession = func(kind codec.Kind, level int, strategy codec.Strategy) (codec.Session, error) {
		s, err := codec.New(kind, level, strategy)
		if err != nil {
			return nil, err
		}
		return &failingSession{Session: s, calls: &calls, limit: 3}, nil
	}
	t.Cleanup(func() { newSession = codec.New })

	zw, err := NewWriter(io.Discard, testOptions(format.FormatGzip, 2, MinBlockSize, codec.KindFlate))
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	data := testData(2*1024*1024, 11)
	var werr error
	for off := 0; off < len(data) && werr == nil; off += 64 * 1024 {
		_, werr = zw.Write(data[off : off+64*1024])
	}
	cerr := zw.Close()

	for _, err := range []error{werr, cerr} {
		if err == nil {
			continue
		}
		var blockErr *BlockError
		if !errors.As(err, &blockErr) {
			t.Fatalf("Expected *BlockError, got %T: %v", err, err)
		}
		if !errors.Is(err, codec.ErrStream) {
			t.Fatalf("Expected codec.ErrStream, got %v", err)
		}
	}
	if cerr == nil {
		t.Fatal("Expected Close to report the codec failure")
	}
	if zw.State() != StateAborted {
		t.Errorf("Expected aborted state, got %s", zw.State())
	}
}

func TestWriteTimeout(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	unstall := func() { releaseOnce.Do(func() { close(release) }) }
	afterBlock = func(int64) { <-release }
	t.Cleanup(func() { afterBlock = nil })

	opts := testOptions(format.FormatGzip, 1, MinBlockSize, codec.KindFlate)
	opts.MaxInFlight = 1
	opts.WriteTimeout = 20 * time.Millisecond

	var out bytes.Buffer
	zw, err := NewWriter(&out, opts)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer zw.Abort()
	defer unstall()

	data := testData(5*MinBlockSize, 12)
	n, err := zw.Write(data)
	if !errors.Is(err, ErrWriteTimeout) {
		t.Fatalf("Expected ErrWriteTimeout, got %v", err)
	}
	if n != 2*MinBlockSize {
		t.Errorf("Expected %d bytes accepted, got %d", 2*MinBlockSize, n)
	}

	unstall()

	// a slow machine may still time out; accepted bytes are never lost
	rest := data[n:]
	for attempt := 0; len(rest) > 0; attempt++ {
		if attempt == 1000 {
			t.Fatalf("Write made no progress, %d bytes left", len(rest))
		}
		written, err := zw.Write(rest)
		rest = rest[written:]
		if err != nil && !errors.Is(err, ErrWriteTimeout) {
			t.Fatalf("Write after timeout failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bytes.Equal(decode(t, format.FormatGzip, out.Bytes()), data) {
		t.Fatal("Round trip mismatch after timeout")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   error
	}{
		{"defaults", func(o *Options) {}, nil},
		{"level too high", func(o *Options) { o.Level = 10 }, ErrInvalidLevel},
		{"level too low", func(o *Options) { o.Level = -2 }, ErrInvalidLevel},
		{"window bits", func(o *Options) { o.WindowBits = 12 }, ErrInvalidWindowBits},
		{"small block", func(o *Options) { o.BlockSize = 64 * 1024 }, ErrBlockSizeTooSmall},
		{"bad format", func(o *Options) { o.Format = format.Format(42) }, ErrInvalidFormat},
		{"bad codec", func(o *Options) { o.Codec = codec.Kind(7) }, ErrInvalidCodec},
		{"bad strategy", func(o *Options) { o.Strategy = Strategy(9) }, ErrInvalidStrategy},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.modify(opts)
			if err := opts.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}

	var zero Options
	if err := zero.Validate(); err != nil {
		t.Fatalf("Zero options should validate: %v", err)
	}
	if zero.Format != format.FormatGzip || zero.BlockSize != DefaultBlockSize || zero.Workers <= 0 {
		t.Errorf("Defaults not filled: %+v", zero)
	}
	if zero.MaxInFlight != 2*zero.Workers {
		t.Errorf("MaxInFlight = %d, want %d", zero.MaxInFlight, 2*zero.Workers)
	}
}
