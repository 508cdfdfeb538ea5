// pkg/pflate/helpers.go
package pflate

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// OperationType names the command a result belongs to
type OperationType string

const (
	OperationCompress   OperationType = "compress"
	OperationDecompress OperationType = "decompress"
	OperationVerify     OperationType = "verify"
)

// ProgressEvent is the progress event shared by compress, decompress and verify
type ProgressEvent struct {
	Type         EventType
	FilePath     string
	Current      int64
	Total        int64
	CurrentBytes uint64
	TotalBytes   uint64
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

// Result is implemented by the results of every operation
type Result interface {
	GetFilesTotal() int
	GetFilesProcessed() int
	GetErrors() []error
	GetOriginalSize() uint64
	GetCompressedSize() uint64
	Success() bool
}

// ProgressBarCallback creates a callback that draws one byte-counting bar per
// file in flight plus an overall bar.
// Call Wait() on the returned container once the operation returns.
func ProgressBarCallback() (func(ProgressEvent), *mpb.Progress) {
	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100),
	)

	var overallBar *mpb.Bar
	var fileBars sync.Map // file path -> *mpb.Bar

	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventStart:
			overallBar = progress.AddBar(int64(event.TotalBytes),
				mpb.PrependDecorators(
					decor.Name(fmt.Sprintf("Total (%d files)", event.Total), decor.WC{C: decor.DindentRight | decor.DextraSpace}),
				),
				mpb.AppendDecorators(
					decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 22}),
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarPriority(1000),
			)

		case EventFileStart:
			if event.TotalBytes == 0 {
				return
			}
			bar := progress.AddBar(int64(event.TotalBytes),
				mpb.PrependDecorators(
					decor.Name(TruncateLeft(event.FilePath, 30), decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 32}),
				),
				mpb.AppendDecorators(
					decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 18}),
					decor.Percentage(decor.WC{W: 5}),
				),
				mpb.BarRemoveOnComplete(),
			)
			fileBars.Store(event.FilePath, bar)

		case EventFileProgress:
			if bar, ok := fileBars.Load(event.FilePath); ok {
				b := bar.(*mpb.Bar)
				delta := int64(event.CurrentBytes) - b.Current()
				b.SetCurrent(int64(event.CurrentBytes))
				if overallBar != nil && delta > 0 {
					overallBar.IncrInt64(delta)
				}
			}

		case EventFileComplete:
			if bar, ok := fileBars.LoadAndDelete(event.FilePath); ok {
				b := bar.(*mpb.Bar)
				if overallBar != nil {
					overallBar.IncrInt64(int64(event.TotalBytes) - b.Current())
				}
				b.SetCurrent(int64(event.TotalBytes))
			}

		case EventError:
			if bar, ok := fileBars.LoadAndDelete(event.FilePath); ok {
				b := bar.(*mpb.Bar)
				if overallBar != nil {
					overallBar.IncrInt64(int64(event.TotalBytes) - b.Current())
				}
				b.Abort(true)
			}

		case EventComplete:
			if overallBar != nil {
				overallBar.SetTotal(-1, true)
			}
		}
	}

	return callback, progress
}

// FormatSummary formats a result into a human-readable summary string
func FormatSummary(result Result, operation OperationType, isDryRun bool) string {
	var sb strings.Builder

	errs := result.GetErrors()
	if len(errs) > 0 {
		fmt.Fprintf(&sb, "Completed with %d errors:\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(&sb, "  - %v\n", e)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Files processed:   %d / %d\n", result.GetFilesProcessed(), result.GetFilesTotal())

	switch operation {
	case OperationCompress:
		fmt.Fprintf(&sb, "  Original size:     %s\n", FormatSize(result.GetOriginalSize()))
		suffix := ""
		if isDryRun {
			suffix = " (estimated)"
		}
		fmt.Fprintf(&sb, "  Compressed size:   %s%s\n", FormatSize(result.GetCompressedSize()), suffix)
		if result.GetOriginalSize() > 0 {
			ratio := float64(result.GetCompressedSize()) / float64(result.GetOriginalSize()) * 100
			fmt.Fprintf(&sb, "  Ratio:             %.1f%%\n", ratio)
		}
	default:
		fmt.Fprintf(&sb, "  Compressed size:   %s\n", FormatSize(result.GetCompressedSize()))
		fmt.Fprintf(&sb, "  Decompressed size: %s\n", FormatSize(result.GetOriginalSize()))
	}

	if isDryRun {
		sb.WriteString("\nDry run complete - no data written.\n")
	}

	return sb.String()
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// TruncateLeft shortens a path from the left to fit maxLen, keeping the file name
func TruncateLeft(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
