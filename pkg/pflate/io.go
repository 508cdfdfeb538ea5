// pkg/pflate/io.go
package pflate

import (
	"io"
	"sync/atomic"
)

// ProgressReader reports every successful read to OnRead
type ProgressReader struct {
	Reader io.Reader
	OnRead func(n int)
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	if n > 0 && pr.OnRead != nil {
		pr.OnRead(n)
	}
	return n, err
}

// CountingWriter forwards to Writer and counts the bytes accepted.
// Count may be read while writes are in progress.
type CountingWriter struct {
	Writer io.Writer
	count  atomic.Uint64
}

func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.Writer.Write(p)
	cw.count.Add(uint64(n))
	return n, err
}

// Count returns the number of bytes written so far
func (cw *CountingWriter) Count() uint64 {
	return cw.count.Load()
}

// NopCloser hides the Close method of a writer, so closing a compressor
// does not close a shared destination such as stdout
type NopCloser struct {
	io.Writer
}
