// pkg/decompress/decompress.go
package decompress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/pflate"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type fileTask struct {
	path string
	info os.FileInfo
}

// Decompress restores every selected compressed file next to itself.
// Per-file failures are collected in Result.Errors.
func Decompress(opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	inputs := opts.Files
	if len(inputs) == 0 {
		inputs = []string{opts.InputPath}
	}
	if opts.OutputPath != "" && len(inputs) > 1 {
		return nil, fmt.Errorf("output path %q needs a single input file, found %d", opts.OutputPath, len(inputs))
	}

	result := &Result{}
	var tasks []fileTask
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", input, err))
			continue
		}
		if !info.Mode().IsRegular() {
			result.Errors = append(result.Errors, fmt.Errorf("%s: not a regular file", input))
			continue
		}
		tasks = append(tasks, fileTask{path: filepath.Clean(input), info: info})
		result.CompressedSize += uint64(info.Size())
	}
	result.FilesTotal = len(inputs)

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:       EventStart,
			Total:      int64(len(tasks)),
			TotalBytes: result.CompressedSize,
		})
	}

	var (
		processed    atomic.Int64
		decompressed atomic.Uint64
		mu           sync.Mutex
		errs         *multierror.Error
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.MaxThreads)

	for _, task := range tasks {
		g.Go(func() error {
			name := filepath.Base(task.path)
			size := uint64(task.info.Size())
			if progressCb != nil {
				progressCb(ProgressEvent{
					Type:       EventFileStart,
					FilePath:   name,
					TotalBytes: size,
				})
			}

			outPath, n, err := decompressFile(task, opts, progressCb)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", task.path, err))
				mu.Unlock()
				opts.Logger.Warn("file failed", zap.String("file", task.path), zap.Error(err))
				if progressCb != nil {
					progressCb(ProgressEvent{
						Type:       EventError,
						FilePath:   name,
						TotalBytes: size,
					})
				}
				return nil
			}

			processed.Add(1)
			decompressed.Add(n)
			if outPath != "" {
				mu.Lock()
				result.Outputs = append(result.Outputs, outPath)
				mu.Unlock()
			}
			opts.Logger.Debug("file decompressed",
				zap.String("file", task.path),
				zap.Uint64("in", size),
				zap.Uint64("out", n),
			)
			if progressCb != nil {
				progressCb(ProgressEvent{
					Type:             EventFileComplete,
					FilePath:         name,
					CurrentBytes:     size,
					TotalBytes:       size,
					DecompressedSize: n,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.FilesProcessed = int(processed.Load())
	result.DecompressedSize = decompressed.Load()
	if errs != nil {
		result.Errors = append(result.Errors, errs.WrappedErrors()...)
	}
	sort.Strings(result.Outputs)

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:             EventComplete,
			Current:          int64(result.FilesProcessed),
			Total:            int64(result.FilesTotal),
			TotalBytes:       result.CompressedSize,
			DecompressedSize: result.DecompressedSize,
		})
	}

	return result, nil
}

// OutputPathFor returns the default restored name of a compressed file:
// the path without its compressed suffix, or with ".out" appended when the
// suffix is not recognised
func OutputPathFor(path string) string {
	if f := format.FromExtension(path); f != format.FormatUnknown {
		return strings.TrimSuffix(path, f.Extension())
	}
	return path + ".out"
}

// decompressFile decodes one file into a temporary file that replaces the
// output once the whole stream, trailer included, has been checked
func decompressFile(task fileTask, opts *Options, progressCb ProgressCallback) (outPath string, written uint64, err error) {
	in, err := os.Open(task.path)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()

	f := opts.Format
	if f == format.FormatUnknown {
		// Detect below from the magic bytes; raw streams only have an extension
		if ext := format.FromExtension(task.path); ext == format.FormatRaw {
			f = ext
		}
	}

	name := filepath.Base(task.path)
	var src io.Reader = in
	if progressCb != nil {
		var read atomic.Uint64
		total := uint64(task.info.Size())
		src = &pflate.ProgressReader{
			Reader: in,
			OnRead: func(n int) {
				progressCb(ProgressEvent{
					Type:         EventFileProgress,
					FilePath:     name,
					CurrentBytes: read.Add(uint64(n)),
					TotalBytes:   total,
				})
			},
		}
	}

	zr, _, err := NewReader(src, f)
	if err != nil {
		return "", 0, err
	}
	defer zr.Close()

	var dst io.Writer = io.Discard
	var tmp *os.File
	if !opts.DryRun {
		outPath = opts.OutputPath
		if outPath == "" {
			outPath = OutputPathFor(task.path)
		}
		if !opts.Overwrite {
			if _, err := os.Stat(outPath); err == nil {
				return "", 0, fmt.Errorf("%w: %s", ErrFileExists, outPath)
			}
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return "", 0, fmt.Errorf("create output directory: %w", err)
		}
		tmp, err = os.CreateTemp(filepath.Dir(outPath), "."+filepath.Base(outPath)+".*.tmp")
		if err != nil {
			return "", 0, fmt.Errorf("create temp file: %w", err)
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

	counter := &pflate.CountingWriter{Writer: dst}
	if _, err = io.Copy(counter, zr); err != nil {
		return "", 0, fmt.Errorf("decode: %w", err)
	}
	written = counter.Count()

	if tmp == nil {
		return "", written, nil
	}

	if err = tmp.Chmod(task.info.Mode().Perm()); err != nil {
		return "", 0, fmt.Errorf("set permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close output file: %w", err)
	}
	if err = os.Chtimes(tmp.Name(), task.info.ModTime(), task.info.ModTime()); err != nil {
		return "", 0, fmt.Errorf("set times: %w", err)
	}
	if err = os.Rename(tmp.Name(), outPath); err != nil {
		return "", 0, fmt.Errorf("rename output file: %w", err)
	}
	tmp = nil

	if opts.Remove {
		if rerr := os.Remove(task.path); rerr != nil {
			return outPath, written, fmt.Errorf("remove input: %w", rerr)
		}
	}
	return outPath, written, nil
}
