// pkg/decompress/options.go
package decompress

import (
	"runtime"

	"github.com/creativeyann17/go-pflate/internal/format"
	"go.uber.org/zap"
)

// Options configures the decompression behavior
type Options struct {
	// Input compressed file path
	// Ignored if Files is provided
	InputPath string

	// Files lists several compressed files to restore
	Files []string

	// OutputPath names the restored file when a single file is decompressed.
	// Empty = input path without its compressed suffix.
	OutputPath string

	// Format forces the envelope instead of detecting it
	// Default: detect from magic bytes, then from the file extension
	Format format.Format

	// Maximum number of files decompressed at once
	// Default: runtime.NumCPU()
	MaxThreads int

	// Overwrite existing files
	Overwrite bool

	// Remove deletes each compressed file once it has been restored
	Remove bool

	// DryRun decodes into a byte counter without writing files
	DryRun bool

	// Verbose enables detailed logging
	Verbose bool

	// Quiet suppresses all output except errors
	Quiet bool

	// Logger receives per-file diagnostics
	// nil = zap.NewNop()
	Logger *zap.Logger
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		MaxThreads: runtime.NumCPU(),
	}
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.InputPath == "" && len(o.Files) == 0 {
		return ErrInputRequired
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.Quiet {
		o.Verbose = false
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}
