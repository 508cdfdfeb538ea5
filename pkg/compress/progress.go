// pkg/compress/progress.go
package compress

import (
	"fmt"
	"strings"

	"github.com/creativeyann17/go-pflate/pkg/pflate"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for various progress events
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information.
// Byte counts are uncompressed unless named otherwise.
type ProgressEvent struct {
	Type           EventType
	FilePath       string
	Current        int64
	Total          int64
	CurrentBytes   uint64
	TotalBytes     uint64
	CompressedSize uint64
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventFileStart
	EventFileProgress
	EventFileComplete
	EventComplete
	EventError
)

// ProgressBarCallback creates a progress callback that displays multi-progress bars
// Returns the callback function and the progress container (call Wait() after compression)
func ProgressBarCallback() (ProgressCallback, *mpb.Progress) {
	bars, progress := pflate.ProgressBarCallback()

	callback := func(event ProgressEvent) {
		bars(pflate.ProgressEvent{
			Type:         pflate.EventType(event.Type),
			FilePath:     event.FilePath,
			Current:      event.Current,
			Total:        event.Total,
			CurrentBytes: event.CurrentBytes,
			TotalBytes:   event.TotalBytes,
		})
	}

	return callback, progress
}

// FormatSummary formats a compression result into a human-readable summary string
func FormatSummary(result *Result, opts *FileOptions) string {
	var sb strings.Builder

	isDryRun := opts != nil && opts.DryRun
	sb.WriteString(pflate.FormatSummary(result, pflate.OperationCompress, isDryRun))

	if result.Blocks > 0 {
		fmt.Fprintf(&sb, "  Blocks:            %d\n", result.Blocks)
	}
	if result.Rsyncable {
		fmt.Fprintf(&sb, "  Rsyncable cuts:    %d\n", result.Cuts)
	}
	return sb.String()
}
