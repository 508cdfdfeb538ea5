// pkg/compress/files.go
package compress

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creativeyann17/go-pflate/internal/chunker"
	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileOptions configures CompressFiles
type FileOptions struct {
	// Input path (file or directory)
	// Ignored if Files is provided
	InputPath string

	// Files allows library users to provide a custom list of files/folders to compress
	// When set, InputPath is ignored
	Files []string

	// OutputPath names the compressed file when a single file is compressed.
	// Empty = input path plus the format's extension, next to the input.
	OutputPath string

	// Recursive descends into directories
	Recursive bool

	// MaxFiles is how many files are compressed at once. Each file already
	// uses Stream.Workers workers.
	// Default: 1
	MaxFiles int

	// Force overwrites existing output files
	Force bool

	// Remove deletes each input file once it has been compressed
	Remove bool

	// DryRun compresses to a byte counter without writing files
	DryRun bool

	// UseGitignore respects .gitignore files to exclude matching paths
	UseGitignore bool

	// Rsyncable cuts blocks at content-defined boundaries so a local change
	// in the input only changes the compressed output near it
	Rsyncable bool

	// Stream configures the compressor used for every file
	Stream Options

	// Verbose enables detailed logging
	Verbose bool

	// Quiet suppresses all output except errors
	Quiet bool
}

// DefaultFileOptions returns options with sensible defaults
func DefaultFileOptions() *FileOptions {
	return &FileOptions{
		MaxFiles: 1,
		Stream:   *DefaultOptions(),
	}
}

// Validate checks if options are valid
func (o *FileOptions) Validate() error {
	if o.InputPath == "" && len(o.Files) == 0 {
		return ErrInputRequired
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = 1
	}
	if o.MaxFiles > runtime.NumCPU() {
		o.MaxFiles = runtime.NumCPU()
	}
	if o.Quiet {
		o.Verbose = false
	}
	return o.Stream.Validate()
}

type fileTask struct {
	AbsPath  string
	RelPath  string
	Info     os.FileInfo
	OrigSize uint64
}

// CompressFiles compresses every selected file into its own stream next to
// the original. Per-file failures are collected in Result.Errors; the
// returned error is reserved for problems that stop the whole run.
func CompressFiles(opts *FileOptions, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := opts.Stream.Logger

	result := &Result{Rsyncable: opts.Rsyncable}

	tasks, err := collectFiles(opts, result)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNoFiles
	}
	if opts.OutputPath != "" && len(tasks) > 1 {
		return nil, fmt.Errorf("output path %q needs a single input file, found %d", opts.OutputPath, len(tasks))
	}

	result.FilesTotal = len(tasks)
	for _, task := range tasks {
		result.OriginalSize += task.OrigSize
	}

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:       EventStart,
			Total:      int64(len(tasks)),
			TotalBytes: result.OriginalSize,
		})
	}

	var (
		processed  atomic.Int64
		compressed atomic.Uint64
		blocks     atomic.Int64
		cuts       atomic.Int64
		mu         sync.Mutex
		errs       *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.MaxFiles)

	for _, task := range tasks {
		g.Go(func() error {
			if progressCb != nil {
				progressCb(ProgressEvent{
					Type:       EventFileStart,
					FilePath:   task.RelPath,
					TotalBytes: task.OrigSize,
				})
			}

			out, err := compressFile(task, opts, progressCb)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", task.RelPath, err))
				mu.Unlock()
				log.Warn("file failed", zap.String("file", task.RelPath), zap.Error(err))
				if progressCb != nil {
					progressCb(ProgressEvent{
						Type:       EventError,
						FilePath:   task.RelPath,
						TotalBytes: task.OrigSize,
					})
				}
				return nil
			}

			processed.Add(1)
			compressed.Add(out.stats.BytesOut)
			blocks.Add(out.stats.Blocks)
			cuts.Add(out.cuts)
			if out.path != "" {
				mu.Lock()
				result.Outputs = append(result.Outputs, out.path)
				mu.Unlock()
			}

			log.Debug("file compressed",
				zap.String("file", task.RelPath),
				zap.Uint64("in", out.stats.BytesIn),
				zap.Uint64("out", out.stats.BytesOut),
			)
			if progressCb != nil {
				progressCb(ProgressEvent{
					Type:           EventFileComplete,
					FilePath:       task.RelPath,
					CurrentBytes:   task.OrigSize,
					TotalBytes:     task.OrigSize,
					CompressedSize: out.stats.BytesOut,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.FilesProcessed = int(processed.Load())
	result.CompressedSize = compressed.Load()
	result.Blocks = blocks.Load()
	result.Cuts = cuts.Load()
	if errs != nil {
		result.Errors = append(result.Errors, errs.WrappedErrors()...)
	}
	sort.Strings(result.Outputs)

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:           EventComplete,
			Current:        int64(result.FilesProcessed),
			Total:          int64(result.FilesTotal),
			TotalBytes:     result.OriginalSize,
			CompressedSize: result.CompressedSize,
		})
	}

	return result, nil
}

type fileOutput struct {
	path  string
	stats Stats
	cuts  int64
}

// outputPathFor returns where the compressed form of task is written
func outputPathFor(task fileTask, opts *FileOptions) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	return task.AbsPath + opts.Stream.Format.Extension()
}

// compressFile streams one file through a Writer into a temporary file that
// replaces the output only once the stream is complete
func compressFile(task fileTask, opts *FileOptions, progressCb ProgressCallback) (out fileOutput, err error) {
	src, err := openSource(task.AbsPath)
	if err != nil {
		return out, err
	}
	defer src.Close()

	var dst io.Writer = io.Discard
	var tmp *os.File
	if !opts.DryRun {
		out.path = outputPathFor(task, opts)
		if !opts.Force {
			if _, err := os.Stat(out.path); err == nil {
				return out, fmt.Errorf("%w: %s", ErrOutputExists, out.path)
			}
		}
		if err := os.MkdirAll(filepath.Dir(out.path), 0755); err != nil {
			return out, fmt.Errorf("create output directory: %w", err)
		}
		tmp, err = os.CreateTemp(filepath.Dir(out.path), "."+filepath.Base(out.path)+".*.tmp")
		if err != nil {
			return out, fmt.Errorf("create temp file: %w", err)
		}
		dst = tmp
		defer func() {
			if err != nil && tmp != nil {
				tmp.Close()
				if rerr := os.Remove(tmp.Name()); rerr != nil {
					err = multierror.Append(err, fmt.Errorf("remove temp file: %w", rerr))
				}
			}
		}()
	}

	stream := opts.Stream
	stream.LeaveOpen = true
	stream.Logger = stream.Logger.With(zap.String("file", task.RelPath))
	if progressCb != nil {
		stream.Progress = func(event ProgressEvent) {
			event.FilePath = task.RelPath
			event.TotalBytes = task.OrigSize
			progressCb(event)
		}
	}

	zw, err := NewWriter(dst, &stream)
	if err != nil {
		return out, err
	}

	if opts.Rsyncable {
		out.cuts, err = copyRsyncable(zw, src, uint64(stream.BlockSize))
	} else {
		buf := getCopyBuffer()
		_, err = io.CopyBuffer(writerOnly{zw}, src, *buf)
		putCopyBuffer(buf)
	}
	if err != nil {
		if aerr := zw.Abort(); aerr != nil {
			err = multierror.Append(err, aerr)
		}
		return out, fmt.Errorf("compress: %w", err)
	}
	if err = zw.Close(); err != nil {
		return out, fmt.Errorf("finish stream: %w", err)
	}
	out.stats = zw.Stats()

	if tmp == nil {
		return out, nil
	}

	if err = tmp.Chmod(task.Info.Mode().Perm()); err != nil {
		return out, fmt.Errorf("set permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return out, fmt.Errorf("close output file: %w", err)
	}
	if err = os.Chtimes(tmp.Name(), task.Info.ModTime(), task.Info.ModTime()); err != nil {
		return out, fmt.Errorf("set times: %w", err)
	}
	if err = os.Rename(tmp.Name(), out.path); err != nil {
		return out, fmt.Errorf("rename output file: %w", err)
	}
	tmp = nil

	if opts.Remove {
		if rerr := os.Remove(task.AbsPath); rerr != nil {
			return out, fmt.Errorf("remove input: %w", rerr)
		}
	}
	return out, nil
}

// copyRsyncable writes src in content-defined chunks, ending a block after each
func copyRsyncable(zw *Writer, src io.Reader, avgSize uint64) (int64, error) {
	var cuts int64
	err := chunker.New(avgSize).SplitWithCallback(src, func(chunk chunker.Chunk) error {
		if _, err := zw.Write(chunk.Data); err != nil {
			return err
		}
		cuts++
		return zw.EndBlock()
	})
	return cuts, err
}

// writerOnly hides optional interfaces so io.CopyBuffer uses the pooled buffer
type writerOnly struct {
	io.Writer
}

// collectFiles gathers the files to compress from either the Files list or InputPath
func collectFiles(opts *FileOptions, result *Result) ([]fileTask, error) {
	var tasks []fileTask
	seen := make(map[string]bool)

	add := func(absPath, relPath string, info os.FileInfo) {
		if seen[absPath] {
			return
		}
		seen[absPath] = true
		if format.FromExtension(absPath) != format.FormatUnknown {
			result.Errors = append(result.Errors, fmt.Errorf("%s: already has a compressed suffix, skipped", relPath))
			return
		}
		tasks = append(tasks, fileTask{
			AbsPath:  absPath,
			RelPath:  relPath,
			Info:     info,
			OrigSize: uint64(info.Size()),
		})
	}

	inputs := opts.Files
	if len(inputs) == 0 {
		inputs = []string{opts.InputPath}
	}

	for _, input := range inputs {
		clean := filepath.Clean(input)
		info, err := os.Stat(clean)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", input, err))
			continue
		}

		if info.Mode().IsRegular() {
			add(clean, filepath.Base(clean), info)
			continue
		}
		if !info.IsDir() {
			continue
		}
		if !opts.Recursive {
			result.Errors = append(result.Errors, fmt.Errorf("%s: is a directory, use recursive mode", input))
			continue
		}

		if err := walkDir(clean, opts.UseGitignore, result, add); err != nil {
			return nil, fmt.Errorf("directory walk failed: %w", err)
		}
	}

	return tasks, nil
}

// walkDir visits every regular file under root, skipping what .gitignore
// files exclude when useGitignore is set
func walkDir(root string, useGitignore bool, result *Result, add func(absPath, relPath string, info os.FileInfo)) error {
	var rules *ignoreRules
	if useGitignore {
		rules = newIgnoreRules(root)
	}
	base := filepath.Base(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if rel != "." && (rules.ignored(rel, true) || (useGitignore && strings.EqualFold(d.Name(), ".git"))) {
				return filepath.SkipDir
			}
			if rules != nil {
				if err := rules.enter(rel); err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("%s: .gitignore: %w", path, err))
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || rules.ignored(rel, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		add(path, filepath.Join(base, rel), info)
		return nil
	})
}
