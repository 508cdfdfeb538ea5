// pkg/compress/options.go
package compress

import (
	"runtime"
	"time"

	"github.com/creativeyann17/go-pflate/internal/blockbuf"
	"github.com/creativeyann17/go-pflate/internal/codec"
	"github.com/creativeyann17/go-pflate/internal/format"
	"go.uber.org/zap"
)

const (
	// MinBlockSize is the smallest accepted block size
	MinBlockSize = 128 * 1024

	// DefaultBlockSize is used when BlockSize is 0
	DefaultBlockSize = 128 * 1024

	// DefaultLevel matches zlib's default
	DefaultLevel = 6
)

// Strategy selects the encoder strategy
type Strategy = codec.Strategy

const (
	StrategyDefault     = codec.StrategyDefault
	StrategyHuffmanOnly = codec.StrategyHuffmanOnly
)

// Format selects the envelope around the DEFLATE stream
type Format = format.Format

const (
	FormatRaw  = format.FormatRaw
	FormatZlib = format.FormatZlib
	FormatGzip = format.FormatGzip
)

// CodecKind selects the encoder backend
type CodecKind = codec.Kind

const (
	CodecFlate     = codec.KindFlate
	CodecBitStream = codec.KindBitStream
)

// Options configures a parallel compression stream
type Options struct {
	// Envelope format: raw deflate, zlib or gzip
	// Default: gzip
	Format format.Format

	// Compression level 0-9, -1 selects DefaultLevel
	// Default: 6
	Level int

	// Encoder strategy
	// Default: StrategyDefault
	Strategy Strategy

	// Window bits, 0 or 15. The window is always 32 KiB.
	WindowBits int

	// Uncompressed bytes per block
	// Minimum 128 KiB, default 128 KiB
	BlockSize int

	// Number of compression workers
	// 0 = runtime.GOMAXPROCS(0)
	Workers int

	// Maximum number of blocks compressing or waiting to be written.
	// Write blocks while this many are in flight.
	// 0 = 2 * Workers
	MaxInFlight int

	// Buffer pool for input, output and dictionary buffers
	// nil = blockbuf.DefaultPool()
	Pool blockbuf.Pool

	// LeaveOpen keeps the sink open on Close when it is an io.Closer
	LeaveOpen bool

	// WriteTimeout bounds how long Write waits for a free in-flight slot.
	// 0 = wait indefinitely
	WriteTimeout time.Duration

	// Codec backend
	// Default: codec.KindFlate
	Codec codec.Kind

	// Logger receives pipeline diagnostics
	// nil = zap.NewNop()
	Logger *zap.Logger

	// Progress is called by the writer goroutine after each block reaches the sink (optional)
	Progress ProgressCallback
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		Format:    format.FormatGzip,
		Level:     DefaultLevel,
		BlockSize: DefaultBlockSize,
		Workers:   runtime.GOMAXPROCS(0),
		Codec:     codec.KindFlate,
	}
}

// Validate checks if options are valid and fills in defaults
func (o *Options) Validate() error {
	if o.Format == format.FormatUnknown {
		o.Format = format.FormatGzip
	}
	switch o.Format {
	case format.FormatRaw, format.FormatZlib, format.FormatGzip:
		// valid
	default:
		return ErrInvalidFormat
	}

	if o.Level == codec.DefaultCompression {
		o.Level = DefaultLevel
	}
	if o.Level < codec.NoCompression || o.Level > codec.BestCompression {
		return ErrInvalidLevel
	}

	switch o.Strategy {
	case StrategyDefault, StrategyHuffmanOnly:
		// valid
	default:
		return ErrInvalidStrategy
	}

	if o.WindowBits != 0 && o.WindowBits != 15 {
		return ErrInvalidWindowBits
	}

	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.BlockSize < MinBlockSize {
		return ErrBlockSizeTooSmall
	}
	if o.BlockSize > blockbuf.MaxCapacity/2 {
		return ErrBlockSizeTooLarge
	}

	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 2 * o.Workers
	}
	if o.WriteTimeout < 0 {
		o.WriteTimeout = 0
	}

	switch o.Codec {
	case codec.KindFlate, codec.KindBitStream:
		// valid
	default:
		return ErrInvalidCodec
	}

	if o.Pool == nil {
		o.Pool = blockbuf.DefaultPool()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}

// outputCapacity is the initial size of a block's output buffer, enough for
// incompressible input plus block overhead
func (o *Options) outputCapacity() int {
	return o.BlockSize*17/16 + blockbuf.WindowSize
}
