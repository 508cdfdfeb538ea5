// pkg/decompress/progress.go
package decompress

import (
	"github.com/creativeyann17/go-pflate/pkg/pflate"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for progress updates during decompression
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information.
// CurrentBytes and TotalBytes count compressed input.
type ProgressEvent struct {
	Type             EventType
	FilePath         string
	Current          int64
	Total            int64
	CurrentBytes     uint64
	TotalBytes       uint64
	DecompressedSize uint64
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
// Returns the callback function and the progress container (call Wait() after decompression)
func ProgressBarCallback() (ProgressCallback, *mpb.Progress) {
	genericCb, progress := pflate.ProgressBarCallback()

	callback := func(event ProgressEvent) {
		genericCb(pflate.ProgressEvent{
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

// FormatSummary formats a decompression result into a human-readable summary string
func FormatSummary(result *Result, dryRun bool) string {
	return pflate.FormatSummary(result, pflate.OperationDecompress, dryRun)
}
