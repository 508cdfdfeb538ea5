// Package checksum computes per-block Adler-32 / CRC-32 values and merges the
// checksums of adjacent regions, so blocks can be summed in parallel and
// folded into one stream checksum in order.
package checksum

import (
	"hash/adler32"
	"hash/crc32"
)

// Kind selects the checksum carried by an envelope
type Kind int

const (
	None Kind = iota
	Adler32
	CRC32
)

func (k Kind) String() string {
	switch k {
	case Adler32:
		return "adler32"
	case CRC32:
		return "crc32"
	default:
		return "none"
	}
}

// Initial is the checksum of the empty input
func (k Kind) Initial() uint32 {
	if k == Adler32 {
		return 1
	}
	return 0
}

// Sum checksums p from the initial value
func (k Kind) Sum(p []byte) uint32 {
	switch k {
	case Adler32:
		return adler32.Checksum(p)
	case CRC32:
		return crc32.ChecksumIEEE(p)
	default:
		return 0
	}
}

// Combine returns the checksum of A||B given sum1 = Sum(A), sum2 = Sum(B) and len2 = len(B)
func (k Kind) Combine(sum1, sum2 uint32, len2 int64) uint32 {
	switch k {
	case Adler32:
		return CombineAdler32(sum1, sum2, len2)
	case CRC32:
		return CombineCRC32(sum1, sum2, len2)
	default:
		return 0
	}
}
