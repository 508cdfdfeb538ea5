// pkg/verify/errors.go
package verify

import "errors"

var (
	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrInvalidMagic is returned when the stream starts with neither a gzip
	// nor a zlib header and the extension does not name raw DEFLATE
	ErrInvalidMagic = errors.New("invalid magic bytes")

	// ErrInvalidHeader is returned when the envelope header is malformed
	ErrInvalidHeader = errors.New("invalid header")

	// ErrPresetDictionary is returned for zlib streams that need a preset dictionary
	ErrPresetDictionary = errors.New("zlib preset dictionary not supported")

	// ErrTruncated is returned when the file is too short to hold header and trailer
	ErrTruncated = errors.New("stream appears truncated")

	// ErrCorruptData is returned when decoding fails or a trailer check does not match
	ErrCorruptData = errors.New("data corruption detected")

	// ErrContentMismatch is returned when the decoded data differs from the original file
	ErrContentMismatch = errors.New("decoded content differs from original")
)
