// internal/chunker/chunker_test.go
package chunker

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestChunkerBasic(t *testing.T) {
	c := New(256)

	if c.AvgSize() != 256 {
		t.Errorf("Expected avg chunk size 256, got %d", c.AvgSize())
	}

	data := bytes.Repeat([]byte("Hello World! This is test data for chunking. "), 100)
	chunks, err := c.Split(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("Expected multiple chunks, got %d", len(chunks))
	}

	var reassembled []byte
	var offset uint64
	for i, chunk := range chunks {
		if chunk.Offset != offset {
			t.Errorf("Chunk %d: offset %d, expected %d", i, chunk.Offset, offset)
		}
		offset += chunk.OrigSize
		reassembled = append(reassembled, chunk.Data...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Error("Reassembled data doesn't match original")
	}
}

func TestChunkerSizeBounds(t *testing.T) {
	c := New(256)

	if c.MinSize() != 64 {
		t.Errorf("Expected minSize 64, got %d", c.MinSize())
	}
	if c.MaxSize() != 1024 {
		t.Errorf("Expected maxSize 1024, got %d", c.MaxSize())
	}

	data := bytes.Repeat([]byte("Testing chunk size bounds with FastCDC algorithm. "), 200)
	chunks, err := c.Split(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for i, chunk := range chunks {
		if i < len(chunks)-1 && chunk.OrigSize < c.MinSize() {
			t.Errorf("Chunk %d: size %d below minimum %d", i, chunk.OrigSize, c.MinSize())
		}
		if chunk.OrigSize > c.MaxSize() {
			t.Errorf("Chunk %d: size %d above maximum %d", i, chunk.OrigSize, c.MaxSize())
		}
	}
}

func TestChunkerMinimumAverage(t *testing.T) {
	if got := New(10).AvgSize(); got != minAverageSize {
		t.Errorf("Expected avg size clamped to %d, got %d", minAverageSize, got)
	}
}

func TestChunkerEmptyData(t *testing.T) {
	chunks, err := New(1024).Split(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected 0 chunks for empty data, got %d", len(chunks))
	}
}

func TestChunkerSmallData(t *testing.T) {
	data := []byte("Small")
	chunks, err := New(1024).Split(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0].Data, data) {
		t.Error("Chunk data doesn't match original")
	}
}

// TestChunkerContentDefinedBoundaries checks that a prefix only disturbs the
// first cuts: most chunks of the shifted input match chunks of the original.
func TestChunkerContentDefinedBoundaries(t *testing.T) {
	c := New(256)

	base := make([]byte, 256*1024)
	rand.New(rand.NewSource(1)).Read(base)
	shifted := append([]byte("PREPENDED CONTENT: "), base...)

	chunksBase, err := c.Split(bytes.NewReader(base))
	if err != nil {
		t.Fatalf("Split base failed: %v", err)
	}
	chunksShifted, err := c.Split(bytes.NewReader(shifted))
	if err != nil {
		t.Fatalf("Split shifted failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, chunk := range chunksBase {
		seen[string(chunk.Data)] = true
	}
	shared := 0
	for _, chunk := range chunksShifted {
		if seen[string(chunk.Data)] {
			shared++
		}
	}

	if shared*10 < len(chunksBase)*8 {
		t.Errorf("Expected most chunks to survive a shift, %d of %d did", shared, len(chunksBase))
	}
}

func TestCallbackError(t *testing.T) {
	data := bytes.Repeat([]byte("test data"), 10000)
	c := New(1024)

	processed := 0
	target := errors.New("stop")
	err := c.SplitWithCallback(bytes.NewReader(data), func(chunk Chunk) error {
		processed++
		if processed == 3 {
			return target
		}
		return nil
	})

	if !errors.Is(err, target) {
		t.Errorf("Expected error %v, got %v", target, err)
	}
	if processed != 3 {
		t.Errorf("Expected to process 3 chunks before error, processed %d", processed)
	}
}
