// pkg/verify/result.go
package verify

import (
	"fmt"
	"strings"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/pflate"
)

// Result contains comprehensive verification results
type Result struct {
	// Stream metadata
	Format      format.Format
	ArchivePath string
	ArchiveSize uint64

	// Header information
	Magic       string // First header bytes in hex
	HeaderValid bool
	LevelHint   string // gzip XFL or zlib FLEVEL
	OS          byte   // gzip OS byte

	// Trailer information
	TrailerValid bool
	TrailerSum   uint32 // CRC-32 or Adler-32 of the last member
	TrailerSize  uint32 // gzip ISIZE of the last member

	// Data integrity (only populated when VerifyData=true)
	DataVerified bool
	Members      int    // gzip members decoded
	OriginalSize uint64 // Decoded bytes
	Digest       string // BLAKE3-256 of the decoded content, hex

	// Comparison against OriginalPath
	Compared     bool
	ContentMatch bool

	// Errors encountered during verification
	Errors []error
}

// CompressionRatio returns the compression ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.ArchiveSize) / float64(r.OriginalSize) * 100
}

// IsValid returns true if the stream passed all validation checks
func (r *Result) IsValid() bool {
	if !r.HeaderValid || !r.TrailerValid || len(r.Errors) > 0 {
		return false
	}
	return !r.Compared || r.ContentMatch
}

// Success returns true if verification completed without critical errors
func (r *Result) Success() bool {
	return r.IsValid()
}

func (r *Result) GetFilesTotal() int { return 1 }
func (r *Result) GetFilesProcessed() int {
	if r.IsValid() {
		return 1
	}
	return 0
}
func (r *Result) GetErrors() []error        { return r.Errors }
func (r *Result) GetOriginalSize() uint64   { return r.OriginalSize }
func (r *Result) GetCompressedSize() uint64 { return r.ArchiveSize }

// Summary returns a human-readable summary of the verification result
func (r *Result) Summary() string {
	status := "VALID"
	if !r.IsValid() {
		status = "INVALID"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "File:    %s [%s]\n", r.ArchivePath, status)
	fmt.Fprintf(&sb, "Format:  %s\n", r.Format)
	fmt.Fprintf(&sb, "Size:    %s\n", pflate.FormatSize(r.ArchiveSize))
	if r.LevelHint != "" {
		fmt.Fprintf(&sb, "Level:   %s\n", r.LevelHint)
	}

	if r.DataVerified {
		sb.WriteString("\nData Integrity:\n")
		fmt.Fprintf(&sb, "  Decoded:   %s (%.1f%% ratio)\n", pflate.FormatSize(r.OriginalSize), r.CompressionRatio())
		if r.Format == format.FormatGzip {
			fmt.Fprintf(&sb, "  Members:   %d\n", r.Members)
		}
		fmt.Fprintf(&sb, "  BLAKE3:    %s\n", r.Digest)
	}

	if r.Compared {
		match := "yes"
		if !r.ContentMatch {
			match = "NO"
		}
		fmt.Fprintf(&sb, "  Matches original: %s\n", match)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\nErrors (%d):\n", len(r.Errors))
		for i, err := range r.Errors {
			if i >= 10 {
				fmt.Fprintf(&sb, "  ... and %d more errors\n", len(r.Errors)-10)
				break
			}
			fmt.Fprintf(&sb, "  - %v\n", err)
		}
	}

	return sb.String()
}
