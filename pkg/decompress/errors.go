// pkg/decompress/errors.go
package decompress

import "errors"

var (
	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrUnknownFormat is returned when neither the magic bytes nor the
	// file extension identify the envelope
	ErrUnknownFormat = errors.New("unknown compressed format")

	// ErrFileExists is returned when output file exists and overwrite is false
	ErrFileExists = errors.New("file exists (use --force to replace)")
)
