// Package codec defines the narrow DEFLATE session contract the pipeline
// drives, and binds it to concrete encoders.
//
// A Session follows the classic stream-compressor shape: the caller supplies an
// input span and an output span, picks a flush mode, and reads back how much of
// each was used. Sessions are reset between blocks, not recreated.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Flush selects how much pending state a Deflate call must emit
type Flush int

const (
	// NoFlush lets the session buffer input freely
	NoFlush Flush = iota
	// BlockFlush ends the current DEFLATE block without byte-aligning;
	// up to 7 bits may remain pending
	BlockFlush
	// SyncFlush emits everything and aligns to a byte boundary with an
	// empty stored block
	SyncFlush
	// FinishFlush emits the final block and ends the stream
	FinishFlush
)

func (f Flush) String() string {
	switch f {
	case BlockFlush:
		return "block"
	case SyncFlush:
		return "sync"
	case FinishFlush:
		return "finish"
	default:
		return "none"
	}
}

// Status reports the outcome of a Deflate call
type Status int

const (
	// StatusOK means the requested work completed and all output was delivered
	StatusOK Status = iota
	// StatusBufferFull means dst filled before all output was delivered;
	// call again with more room
	StatusBufferFull
	// StatusStreamEnd means FinishFlush completed and all output was delivered
	StatusStreamEnd
)

// Strategy tunes the encoder
type Strategy int

const (
	StrategyDefault Strategy = iota
	// StrategyHuffmanOnly disables match finding
	StrategyHuffmanOnly
)

const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = -1
)

var (
	// ErrStream is returned when a session is driven out of order or its encoder fails
	ErrStream = errors.New("codec: stream error")

	// ErrUnsupported is returned by sessions that cannot honor a primitive
	ErrUnsupported = errors.New("codec: operation not supported")

	// ErrInvalidLevel is returned for levels outside -1..9
	ErrInvalidLevel = errors.New("codec: invalid compression level")
)

// Session is one persistent compressor state, owned by a single goroutine
type Session interface {
	// Reset discards all state so the next Deflate starts a fresh stream
	Reset() error
	// SetParams applies level and strategy; takes effect from the next Reset
	SetParams(level int, strategy Strategy) error
	// SetDictionary primes the history window; must follow Reset and precede Deflate
	SetDictionary(dict []byte) error
	// Deflate consumes from src and writes compressed bytes into dst
	Deflate(dst, src []byte, flush Flush) (consumed, produced int, status Status, err error)
	// Pending reports how many output bits are held back below a byte boundary
	Pending() (bits int, err error)
	// Prime inserts the low bits of value directly into the output bit stream
	Prime(bits int, value uint32) error
	// Close releases encoder resources
	Close() error
}

// Kind selects a Session implementation
type Kind int

const (
	// KindFlate uses github.com/klauspost/compress/flate. Every block flush
	// is byte-aligned, so no bits are ever pending.
	KindFlate Kind = iota
	// KindBitStream uses matchfinder match search with a bit-exact block
	// writer that leaves partial bytes pending across block flushes.
	KindBitStream
)

func (k Kind) String() string {
	switch k {
	case KindFlate:
		return "flate"
	case KindBitStream:
		return "bitstream"
	default:
		return fmt.Sprintf("codec(%d)", int(k))
	}
}

// ParseKind accepts the names produced by String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flate", "klauspost", "":
		return KindFlate, nil
	case "bitstream", "matchfinder", "bits":
		return KindBitStream, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", s)
	}
}

// New creates a session of the given kind
func New(kind Kind, level int, strategy Strategy) (Session, error) {
	if level < DefaultCompression || level > BestCompression {
		return nil, ErrInvalidLevel
	}

	var s Session
	switch kind {
	case KindFlate:
		s = newFlateSession()
	case KindBitStream:
		s = newBitSession()
	default:
		return nil, fmt.Errorf("%w: unknown codec kind %d", ErrUnsupported, kind)
	}

	if err := s.SetParams(level, strategy); err != nil {
		return nil, err
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}
