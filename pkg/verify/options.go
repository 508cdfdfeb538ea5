// pkg/verify/options.go
package verify

import "github.com/creativeyann17/go-pflate/internal/format"

// Options configures the verify operation
type Options struct {
	// InputPath is the compressed file to verify (required)
	InputPath string

	// VerifyData decodes the whole stream, checking every trailer and
	// computing a BLAKE3 digest of the content.
	// When false, only the header and trailer layout are checked (faster)
	// Default: false
	VerifyData bool

	// OriginalPath compares the decoded content against this file.
	// Setting it implies VerifyData.
	OriginalPath string

	// Format forces the envelope instead of detecting it
	Format format.Format

	// Verbose enables detailed logging during verification
	Verbose bool

	// Quiet suppresses all output except errors
	Quiet bool
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.InputPath == "" {
		return ErrInputRequired
	}
	if o.OriginalPath != "" {
		o.VerifyData = true
	}
	if o.Quiet {
		o.Verbose = false
	}
	return nil
}
