// pkg/compress/errors.go
package compress

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned for an unknown envelope format
	ErrInvalidFormat = errors.New("format must be raw, zlib or gzip")

	// ErrInvalidLevel is returned when compression level is out of range
	ErrInvalidLevel = errors.New("compression level must be between 0 and 9")

	// ErrInvalidStrategy is returned for an unknown strategy
	ErrInvalidStrategy = errors.New("unknown compression strategy")

	// ErrInvalidWindowBits is returned when window bits is neither 0 nor 15
	ErrInvalidWindowBits = errors.New("window bits must be 0 or 15")

	// ErrBlockSizeTooSmall is returned when block size is below MinBlockSize
	ErrBlockSizeTooSmall = errors.New("block size must be at least 128 KiB")

	// ErrBlockSizeTooLarge is returned when block size cannot fit a buffer
	ErrBlockSizeTooLarge = errors.New("block size too large")

	// ErrInvalidCodec is returned for an unknown codec backend
	ErrInvalidCodec = errors.New("unknown codec backend")

	// ErrClosed is returned by Write, Flush and EndBlock after Close, and by a second Close
	ErrClosed = errors.New("compress: stream already closed")

	// ErrAborted is returned by any call on a stream stopped with Abort
	ErrAborted = errors.New("compress: stream aborted")

	// ErrWriteTimeout is returned when Write gives up waiting for backpressure
	// to clear. The bytes reported as written are buffered and will be compressed.
	ErrWriteTimeout = errors.New("compress: write timed out waiting for in-flight blocks")

	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrNoFiles is returned when no files are found to compress
	ErrNoFiles = errors.New("no regular files found to compress")

	// ErrOutputExists is returned when the output file exists and Force is not set
	ErrOutputExists = errors.New("output file already exists")
)

// BlockError reports a codec failure on one block
type BlockError struct {
	Seq int64
	Err error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("compress block %d: %v", e.Seq, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}
