// cmd/pflate/decompress_cmd.go

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/decompress"
)

func init() {
	rootCmd.AddCommand(decompressCmd())
}

func decompressCmd() *cobra.Command {
	var inputPath, outputPath, formatName string
	var threads int
	var stdout, overwrite, remove, dryRun, verbose, quiet bool

	cmd := &cobra.Command{
		Use:     "decompress [files...]",
		Aliases: []string{"d"},
		Short:   "Restore gzip, zlib or raw deflate files",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose, quiet)
			defer log.Sync()

			var f format.Format
			if formatName != "" {
				var err error
				if f, err = format.Parse(formatName); err != nil {
					return err
				}
			}

			if stdout || (inputPath == "" && len(args) == 0) {
				return decompressStream(inputPath, args, f)
			}

			opts := &decompress.Options{
				InputPath:  inputPath,
				Files:      args,
				OutputPath: outputPath,
				Format:     f,
				MaxThreads: threads,
				Overwrite:  overwrite,
				Remove:     remove,
				DryRun:     dryRun,
				Verbose:    verbose,
				Quiet:      quiet,
				Logger:     log,
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

			say("Starting decompression...")
			if opts.InputPath != "" {
				say("  Input:       %s", opts.InputPath)
			} else {
				say("  Inputs:      %d files", len(opts.Files))
			}
			if overwrite {
				say("  Mode:        OVERWRITE (replacing existing files)")
			}
			if dryRun {
				say("  Mode:        DRY-RUN (no data written)")
			}
			say("")

			var progressCb decompress.ProgressCallback
			var progress *mpb.Progress
			if !quiet && !verbose {
				progressCb, progress = decompress.ProgressBarCallback()
			}

			result, err := decompress.Decompress(opts, progressCb)

			if progress != nil {
				progress.Wait()
			}

			if err != nil {
				return err
			}

			if !quiet {
				fmt.Println()
				fmt.Print(decompress.FormatSummary(result, dryRun))
			}

			if len(result.Errors) > 0 {
				return fmt.Errorf("finished with %d errors", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input compressed file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (single input only)")
	cmd.Flags().BoolVarP(&stdout, "stdout", "c", false, "Write to stdout, reading stdin when no input is given")
	cmd.Flags().StringVar(&formatName, "format", "", "Force the stream format: gzip, zlib or deflate")
	cmd.Flags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "Files decompressed at once")
	cmd.Flags().BoolVarP(&overwrite, "force", "f", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&remove, "remove", false, "Delete compressed files after restoring them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decode without writing anything")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")

	return cmd
}

// decompressStream decodes stdin, or a single named file, to stdout
func decompressStream(inputPath string, args []string, f format.Format) error {
	var src io.Reader = os.Stdin
	if inputPath == "" && len(args) == 1 {
		inputPath = args[0]
	} else if len(args) > 1 {
		return errors.New("--stdout takes at most one input")
	}
	if inputPath != "" && inputPath != "-" {
		in, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer in.Close()
		src = in
		if f == format.FormatUnknown && format.FromExtension(inputPath) == format.FormatRaw {
			f = format.FormatRaw
		}
	}

	zr, _, err := decompress.NewReader(src, f)
	if err != nil {
		return err
	}
	defer zr.Close()

	if _, err := io.Copy(os.Stdout, zr); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
