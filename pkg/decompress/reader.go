// pkg/decompress/reader.go
package decompress

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// NewReader returns a reader producing the decompressed form of r.
// When f is format.FormatUnknown the envelope is detected from the first
// bytes of r; raw DEFLATE has no magic and must be named explicitly.
// Concatenated gzip members are read as one stream.
func NewReader(r io.Reader, f format.Format) (io.ReadCloser, format.Format, error) {
	br := bufio.NewReader(r)

	if f == format.FormatUnknown {
		magic, err := br.Peek(2)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, f, fmt.Errorf("read magic: %w", err)
		}
		f = format.Detect(magic)
		if f == format.FormatUnknown {
			return nil, f, ErrUnknownFormat
		}
	}

	switch f {
	case format.FormatGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, f, fmt.Errorf("gzip header: %w", err)
		}
		return zr, f, nil
	case format.FormatZlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, f, fmt.Errorf("zlib header: %w", err)
		}
		return zr, f, nil
	case format.FormatRaw:
		return flate.NewReader(br), f, nil
	default:
		return nil, f, ErrUnknownFormat
	}
}
