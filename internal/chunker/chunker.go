// internal/chunker/chunker.go
package chunker

import (
	"errors"
	"fmt"
	"io"

	fastcdc "github.com/jotfs/fastcdc-go"
)

// minAverageSize keeps MinSize at or above the 64 bytes FastCDC requires
const minAverageSize = 256

// Chunker finds content-defined cut points with FastCDC. The same content
// produces the same cuts wherever it sits in a stream, which keeps the
// compressed output of an edited file rsync-friendly.
type Chunker struct {
	avgSize uint64
}

// New creates a chunker targeting the given average chunk size
func New(avgSize uint64) *Chunker {
	if avgSize < minAverageSize {
		avgSize = minAverageSize
	}
	return &Chunker{avgSize: avgSize}
}

// Chunk is one content-defined piece of the input
type Chunk struct {
	Offset   uint64
	Data     []byte
	OrigSize uint64
}

// AvgSize returns the configured average chunk size
func (c *Chunker) AvgSize() uint64 { return c.avgSize }

// MinSize returns the smallest chunk FastCDC emits before end of input
func (c *Chunker) MinSize() uint64 { return c.avgSize / 4 }

// MaxSize returns the largest chunk FastCDC emits
func (c *Chunker) MaxSize() uint64 { return c.avgSize * 4 }

// SplitWithCallback streams reader through FastCDC and calls fn for every chunk.
// Chunk.Data is only valid until fn returns. An error from fn stops the split
// and is returned unchanged.
func (c *Chunker) SplitWithCallback(reader io.Reader, fn func(Chunk) error) error {
	cdc, err := fastcdc.NewChunker(reader, fastcdc.Options{
		MinSize:     int(c.MinSize()),
		AverageSize: int(c.avgSize),
		MaxSize:     int(c.MaxSize()),
	})
	if err != nil {
		return fmt.Errorf("create fastcdc chunker: %w", err)
	}

	for {
		chunk, err := cdc.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("next chunk: %w", err)
		}
		if err := fn(Chunk{
			Offset:   uint64(chunk.Offset),
			Data:     chunk.Data,
			OrigSize: uint64(chunk.Length),
		}); err != nil {
			return err
		}
	}
}

// Split reads the whole input and returns copies of every chunk
func (c *Chunker) Split(reader io.Reader) ([]Chunk, error) {
	chunks := make([]Chunk, 0, 8)
	err := c.SplitWithCallback(reader, func(chunk Chunk) error {
		chunk.Data = append([]byte(nil), chunk.Data...)
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}
