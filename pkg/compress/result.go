// pkg/compress/result.go
package compress

// Result contains statistics about a CompressFiles run
type Result struct {
	// Total number of files found
	FilesTotal int

	// Number of files successfully compressed
	FilesProcessed int

	// Total original size in bytes
	OriginalSize uint64

	// Total compressed size in bytes
	CompressedSize uint64

	// Number of blocks compressed across all files
	Blocks int64

	// Content-defined block cuts (when Rsyncable is set)
	Rsyncable bool
	Cuts      int64

	// Paths of the files written
	Outputs []string

	// List of errors encountered (non-fatal)
	Errors []error
}

// CompressionRatio returns the compression ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize) * 100
}

// Success returns true if all files were processed without errors
func (r *Result) Success() bool {
	return len(r.Errors) == 0 && r.FilesProcessed == r.FilesTotal
}

func (r *Result) GetFilesTotal() int        { return r.FilesTotal }
func (r *Result) GetFilesProcessed() int    { return r.FilesProcessed }
func (r *Result) GetErrors() []error        { return r.Errors }
func (r *Result) GetOriginalSize() uint64   { return r.OriginalSize }
func (r *Result) GetCompressedSize() uint64 { return r.CompressedSize }
