// cmd/pflate/verify_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-pflate/internal/format"
	"github.com/creativeyann17/go-pflate/pkg/pflate"
	"github.com/creativeyann17/go-pflate/pkg/verify"
)

func init() {
	rootCmd.AddCommand(verifyCmd())
}

func verifyCmd() *cobra.Command {
	var inputPath, originalPath, formatName string
	var verifyData bool
	var verbose bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify stream integrity",
		Long: `Verify the integrity of a gzip, zlib or raw deflate file.

By default, checks the header and the trailer layout.
Use --data to decode all content, check every trailer and print a BLAKE3
digest. Use --original to also compare the content with the source file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &verify.Options{
				InputPath:    inputPath,
				OriginalPath: originalPath,
				VerifyData:   verifyData,
				Verbose:      verbose,
				Quiet:        quiet,
			}
			if formatName != "" {
				f, err := format.Parse(formatName)
				if err != nil {
					return err
				}
				opts.Format = f
			}

			if err := opts.Validate(); err != nil {
				return err
			}

			// Logging helper
			log := func(format string, args ...interface{}) {
				if !quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			log("Verifying: %s", inputPath)
			if opts.VerifyData {
				log("Mode: Full data integrity check")
			} else {
				log("Mode: Header and trailer only")
			}
			log("")

			var progressCb verify.ProgressCallback
			if !quiet && !verbose {
				progressCb = func(event verify.ProgressEvent) {
					switch event.Type {
					case verify.EventDataProgress:
						fmt.Printf("\r  Decoded input: %s / %s",
							pflate.FormatSize(event.CurrentBytes), pflate.FormatSize(event.TotalBytes))
					case verify.EventCompare:
						fmt.Printf("\n  Comparing with %s\n", event.FilePath)
					case verify.EventComplete, verify.EventError:
						fmt.Println()
					}
				}
			} else if verbose {
				progressCb = func(event verify.ProgressEvent) {
					switch event.Type {
					case verify.EventStart:
						fmt.Printf("Starting verification: %s (%s)\n", event.FilePath, pflate.FormatSize(event.TotalBytes))
					case verify.EventHeader:
						fmt.Printf("  %s\n", event.Message)
					case verify.EventCompare:
						fmt.Printf("  Comparing with %s\n", event.FilePath)
					case verify.EventComplete:
						fmt.Printf("Verification complete\n")
					}
				}
			}

			result, err := verify.Verify(opts, progressCb)
			if err != nil && result == nil {
				return err
			}

			fmt.Println()
			fmt.Print(result.Summary())

			if !result.IsValid() {
				return fmt.Errorf("verification failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Compressed file (required)")
	cmd.Flags().StringVar(&originalPath, "original", "", "Compare decoded content with this file")
	cmd.Flags().StringVar(&formatName, "format", "", "Force the stream format: gzip, zlib or deflate")
	cmd.Flags().BoolVar(&verifyData, "data", false, "Verify data integrity by decoding all content")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
