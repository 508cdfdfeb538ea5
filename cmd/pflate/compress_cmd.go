// cmd/pflate/compress_cmd.go

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"go.uber.org/zap"

	"github.com/creativeyann17/go-pflate/internal/codec"
	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/compress"
	"github.com/creativeyann17/go-pflate/pkg/pflate"
)

func init() {
	rootCmd.AddCommand(compressCmd())
}

func compressCmd() *cobra.Command {
	var inputPath, outputPath string
	var formatName, codecName string
	var level, blockSizeKiB, threads, maxFiles int
	var stdout, recursive, gitignore, rsyncable, huffmanOnly bool
	var force, remove, dryRun, verbose, quiet bool

	cmd := &cobra.Command{
		Use:   "compress [files...]",
		Short: "Compress files into gzip, zlib or raw deflate streams",
		Long: `Compress each input file into its own stream, next to the original.

Blocks of the input are compressed in parallel and written in order, so the
result is a single standard stream. With --stdout (or no input) the data is
read from stdin or the single input and written to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose, quiet)
			defer log.Sync()

			f, err := format.Parse(formatName)
			if err != nil {
				return err
			}
			kind, err := codec.ParseKind(codecName)
			if err != nil {
				return err
			}

			stream := compress.DefaultOptions()
			stream.Format = f
			stream.Level = level
			stream.BlockSize = blockSizeKiB * 1024
			stream.Workers = threads
			stream.Codec = kind
			stream.Logger = log
			if huffmanOnly {
				stream.Strategy = compress.StrategyHuffmanOnly
			}
			if err := stream.Validate(); err != nil {
				return err
			}
			capInFlight(stream, log)

			if stdout || (inputPath == "" && len(args) == 0) {
				return compressStream(inputPath, args, stream)
			}

			opts := &compress.FileOptions{
				InputPath:    inputPath,
				Files:        args,
				OutputPath:   outputPath,
				Recursive:    recursive,
				MaxFiles:     maxFiles,
				Force:        force,
				Remove:       remove,
				DryRun:       dryRun,
				UseGitignore: gitignore,
				Rsyncable:    rsyncable,
				Stream:       *stream,
				Verbose:      verbose,
				Quiet:        quiet,
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			// Logging helper
			say := func(format string, args ...interface{}) {
				if !quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			say("Starting compression...")
			if opts.InputPath != "" {
				say("  Input:       %s", opts.InputPath)
			} else {
				say("  Inputs:      %d paths", len(opts.Files))
			}
			say("  Format:      %s (level %d, %s codec)", stream.Format, stream.Level, stream.Codec)
			say("  Block size:  %d KiB", stream.BlockSize/1024)
			say("  Workers:     %d (%d blocks in flight)", stream.Workers, stream.MaxInFlight)
			if rsyncable {
				say("  Mode:        RSYNCABLE (content-defined block cuts)")
			}
			if dryRun {
				say("  Mode:        DRY-RUN (no data written)")
			}
			say("")

			var progressCb compress.ProgressCallback
			var progress *mpb.Progress
			if !quiet && !verbose {
				progressCb, progress = compress.ProgressBarCallback()
			}

			result, err := compress.CompressFiles(opts, progressCb)

			if progress != nil {
				progress.Wait()
			}

			if err != nil {
				return err
			}

			if !quiet {
				fmt.Println()
				fmt.Print(compress.FormatSummary(result, opts))
			}

			if len(result.Errors) > 0 {
				return fmt.Errorf("finished with %d errors", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file or directory")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (single input only)")
	cmd.Flags().BoolVarP(&stdout, "stdout", "c", false, "Write to stdout, reading stdin when no input is given")
	cmd.Flags().StringVar(&formatName, "format", "gzip", "Stream format: gzip, zlib or deflate")
	cmd.Flags().IntVarP(&level, "level", "l", compress.DefaultLevel, "Compression level (0=stored, 1=fastest, 9=best)")
	cmd.Flags().IntVarP(&blockSizeKiB, "block-size", "b", compress.DefaultBlockSize/1024, "Block size in KiB (minimum 128)")
	cmd.Flags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "Compression workers per file")
	cmd.Flags().IntVar(&maxFiles, "files", 1, "Files compressed at once")
	cmd.Flags().StringVar(&codecName, "codec", "flate", "Block encoder: flate or bitstream")
	cmd.Flags().BoolVar(&huffmanOnly, "huffman-only", false, "Disable match search, entropy coding only")
	cmd.Flags().BoolVar(&rsyncable, "rsyncable", false, "Cut blocks at content-defined boundaries")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Compress every file under a directory")
	cmd.Flags().BoolVar(&gitignore, "gitignore", false, "Skip files matched by .gitignore")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing output files")
	cmd.Flags().BoolVar(&remove, "remove", false, "Delete inputs after compressing them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compress without writing anything")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")

	return cmd
}

// compressStream compresses stdin, or a single named file, to stdout
func compressStream(inputPath string, args []string, stream *compress.Options) error {
	var src io.Reader = os.Stdin
	if inputPath == "" && len(args) == 1 {
		inputPath = args[0]
	} else if len(args) > 1 {
		return errors.New("--stdout takes at most one input")
	}
	if inputPath != "" && inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	zw, err := compress.NewWriter(pflate.NopCloser{Writer: os.Stdout}, stream)
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, src); err != nil {
		if aerr := zw.Abort(); aerr != nil {
			stream.Logger.Warn("abort failed", zap.Error(aerr))
		}
		return fmt.Errorf("compress: %w", err)
	}
	return zw.Close()
}

// capInFlight limits the blocks held in memory to a quarter of system RAM
func capInFlight(opts *compress.Options, log *zap.Logger) {
	totalKB, err := getTotalSystemMemory()
	if err != nil {
		log.Debug("system memory unknown, keeping in-flight limit", zap.Error(err))
		return
	}

	// input block plus its output buffer
	perBlock := uint64(opts.BlockSize) * 2
	limit := int(totalKB * 1024 / 4 / perBlock)
	if limit < 1 {
		limit = 1
	}
	if opts.MaxInFlight > limit {
		log.Info("in-flight blocks capped by system memory",
			zap.Int("requested", opts.MaxInFlight),
			zap.Int("limit", limit),
		)
		opts.MaxInFlight = limit
	}
}
