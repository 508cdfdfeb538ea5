// Package format describes the stream envelopes the compressor can emit:
// raw DEFLATE (RFC 1951), zlib (RFC 1950) and gzip (RFC 1952).
package format

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/creativeyann17/go-pflate/internal/checksum"
)

// Format represents a stream envelope
type Format int

const (
	FormatUnknown Format = iota
	FormatRaw
	FormatZlib
	FormatGzip
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	gzipOSUnix  = 3

	// CM=8 (deflate), CINFO=7 (32K window)
	zlibCMF = 0x78

	// Compression levels as understood by zlib/gzip headers
	levelFastest = 1
	levelBest    = 9
	levelDefault = -1
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "deflate"
	case FormatZlib:
		return "zlib"
	case FormatGzip:
		return "gzip"
	default:
		return "unknown"
	}
}

// Parse accepts the names produced by String plus a few common aliases
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gzip", "gz":
		return FormatGzip, nil
	case "zlib", "zz":
		return FormatZlib, nil
	case "deflate", "raw", "flate":
		return FormatRaw, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown format %q", s)
	}
}

// Extension returns the conventional file suffix
func (f Format) Extension() string {
	switch f {
	case FormatRaw:
		return ".deflate"
	case FormatZlib:
		return ".zz"
	case FormatGzip:
		return ".gz"
	default:
		return ""
	}
}

// Checksum returns the checksum carried in the trailer
func (f Format) Checksum() checksum.Kind {
	switch f {
	case FormatZlib:
		return checksum.Adler32
	case FormatGzip:
		return checksum.CRC32
	default:
		return checksum.None
	}
}

// Header returns the envelope header for the given level.
// huffmanOnly marks the fastest-strategy case that zlib reports like level 1.
func (f Format) Header(level int, huffmanOnly bool) []byte {
	switch f {
	case FormatZlib:
		return zlibHeader(level, huffmanOnly)
	case FormatGzip:
		return gzipHeader(level, huffmanOnly)
	default:
		return nil
	}
}

// Trailer returns the envelope trailer for the stream checksum and total input size
func (f Format) Trailer(sum uint32, size uint64) []byte {
	switch f {
	case FormatZlib:
		return binary.BigEndian.AppendUint32(nil, sum)
	case FormatGzip:
		buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 8), sum)
		return binary.LittleEndian.AppendUint32(buf, uint32(size))
	default:
		return nil
	}
}

// HeaderSize returns the number of header bytes emitted by Header
func (f Format) HeaderSize() int {
	switch f {
	case FormatZlib:
		return 2
	case FormatGzip:
		return 10
	default:
		return 0
	}
}

func zlibHeader(level int, huffmanOnly bool) []byte {
	var flevel uint16
	switch {
	case huffmanOnly || (level >= 0 && level < 2):
		flevel = 0
	case level >= 2 && level < 6:
		flevel = 1
	case level == 6 || level == levelDefault:
		flevel = 2
	default:
		flevel = 3
	}

	h := uint16(zlibCMF)<<8 | flevel<<6
	h += 31 - h%31
	return binary.BigEndian.AppendUint16(nil, h)
}

func gzipHeader(level int, huffmanOnly bool) []byte {
	var xfl byte
	switch {
	case level == levelBest:
		xfl = 2
	case huffmanOnly || (level >= 0 && level <= levelFastest):
		xfl = 4
	}

	return []byte{
		gzipID1, gzipID2,
		gzipDeflate,
		0,          // FLG
		0, 0, 0, 0, // MTIME
		xfl,
		gzipOSUnix,
	}
}
