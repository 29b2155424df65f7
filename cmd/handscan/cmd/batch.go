package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MeKo-Tech/handscan/internal/batch"
	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/spf13/cobra"
)

// errSomeFailed makes the exit status non-zero after results were written.
var errSomeFailed = errors.New("some images could not be analyzed")

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir|files...>",
		Short: "Analyze many photos in parallel",
		Long: `Analyze every photo found in the given files and directories using a pool
of workers. A failing photo is reported in the results and does not stop the
others unless --fail-fast is set.

Supported formats: JPEG, PNG, BMP, TIFF, WebP

Examples:
  handscan batch scans/
  handscan batch scans/ --recursive --workers 8
  handscan batch a.jpg b.png --format csv --output results.csv
  handscan batch scans/ --exclude "*_thumb.jpg" --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			format := cfg.Output.Format
			overrideString(flags, "format", &format)
			if format == "" {
				format = outputFormatText
			}
			if err := validateFormat(format, outputFormatText, outputFormatJSON, outputFormatCSV); err != nil {
				return err
			}
			outputFile := cfg.Output.File
			overrideString(flags, "output", &outputFile)

			batchConfig := configToBatchConfig(cfg, cmd)
			quiet, _ := flags.GetBool("quiet")
			if !quiet {
				errOut := cmd.ErrOrStderr()
				batchConfig.Progress = func(done, total int, item batch.Item) {
					status := "ok"
					switch {
					case item.Err != nil:
						status = item.Message
					case item.Result != nil && item.Result.NoText:
						status = scan.NoTextMessage
					}
					_, _ = fmt.Fprintf(errOut, "[%d/%d] %s: %s\n", done, total, filepath.Base(item.Path), status)
				}
			}

			analyzer, err := a.analyzer(analysisOptions(cfg, flags))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			result, err := batch.ProcessBatch(ctx, analyzer, args, batchConfig)
			if result == nil {
				return err
			}

			content, ferr := result.FormatResults(format)
			if ferr != nil {
				return ferr
			}
			if werr := writeOutput(cmd.OutOrStdout(), outputFile, content); werr != nil {
				return werr
			}
			if showStats, _ := flags.GetBool("stats"); showStats {
				result.WriteStats(cmd.ErrOrStderr())
			}

			if err != nil {
				return err
			}
			if result.Failed() {
				return errSomeFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	addAnalysisFlags(flags)
	flags.StringP("format", "f", "", "output format: text, json, csv")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.IntP("workers", "w", 0, "number of parallel workers (default from config)")
	flags.BoolP("recursive", "r", false, "recursively scan directories")
	flags.StringSlice("include", nil, "file name patterns to include, e.g. *.jpg")
	flags.StringSlice("exclude", nil, "file name patterns to exclude")
	flags.Bool("fail-fast", false, "stop at the first failing photo")
	flags.Bool("quiet", false, "suppress per-file progress")
	flags.Bool("stats", false, "print processing statistics")
	return cmd
}

// configToBatchConfig maps the configuration and changed flags to
// batch.Config.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	flags := cmd.Flags()
	bc := batch.DefaultConfig()
	bc.Workers = cfg.Batch.Workers
	bc.Recursive = cfg.Batch.Recursive
	bc.FailFast = cfg.Batch.FailFast
	overrideInt(flags, "workers", &bc.Workers)
	overrideBool(flags, "recursive", &bc.Recursive)
	overrideBool(flags, "fail-fast", &bc.FailFast)
	bc.IncludePatterns, _ = flags.GetStringSlice("include")
	bc.ExcludePatterns, _ = flags.GetStringSlice("exclude")
	return &bc
}
