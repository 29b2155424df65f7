package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/handscan/internal/capture"
	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// signalContext is cancelled on SIGINT or SIGTERM, which surfaces to the
// user as "Analysis cancelled".
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func addCaptureFlags(flags *pflag.FlagSet) {
	flags.String("output-dir", "", "directory captured photos are stored in")
	flags.String("command", "", "camera command; {output} is replaced by the photo path")
	flags.String("from", "", "import this image file instead of running the camera")
}

func captureStore(cfg *config.Config, flags *pflag.FlagSet) *capture.Store {
	dir := cfg.Capture.OutputDir
	overrideString(flags, "output-dir", &dir)
	return capture.NewStore(dir)
}

func captureSource(cfg *config.Config, flags *pflag.FlagSet) (capture.Source, error) {
	store := captureStore(cfg, flags)
	if from, _ := flags.GetString("from"); from != "" {
		return &capture.FileSource{Path: from, Store: store}, nil
	}
	command := cfg.Capture.Command
	overrideString(flags, "command", &command)
	return capture.NewCommandSource(command, store)
}

func addOutputFlags(flags *pflag.FlagSet) {
	flags.StringP("format", "f", "", "output format: text, json")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("save-response", false, "write the raw service response to <name>_response.json")
}

type outputOptions struct {
	format       string
	file         string
	saveResponse bool
}

func resolveOutput(cfg *config.Config, flags *pflag.FlagSet) (outputOptions, error) {
	out := outputOptions{
		format:       cfg.Output.Format,
		file:         cfg.Output.File,
		saveResponse: cfg.Output.SaveResponse,
	}
	overrideString(flags, "format", &out.format)
	overrideString(flags, "output", &out.file)
	overrideBool(flags, "save-response", &out.saveResponse)
	if out.format == "" {
		out.format = outputFormatText
	}
	if err := validateFormat(out.format, outputFormatText, outputFormatJSON); err != nil {
		return out, err
	}
	return out, nil
}

// printResult renders res. "No text detected" is a normal result, not a
// failure.
func printResult(cmd *cobra.Command, res *scan.Result, out outputOptions) error {
	var content string
	switch out.format {
	case outputFormatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		content = string(data)
	default:
		content = res.DisplayText()
	}
	if err := writeOutput(cmd.OutOrStdout(), out.file, content); err != nil {
		return err
	}

	if out.saveResponse && res.Response != nil {
		target := siblingPath(res.Source, "", "_response.json")
		data, err := json.MarshalIndent(res.Response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		slog.Info("saved service response", "file", target)
	}
	return nil
}

func newCaptureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take a photo and store it for analysis",
		Long: `Run the configured camera command once and store the photo under a
timestamped name (yyyy-MM-dd-HH-mm-ss-SSS.jpg). The stored path is printed.

Examples:
  handscan capture
  handscan capture --command "fswebcam --no-banner {output}"
  handscan capture --from scan.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			src, err := captureSource(cfg, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			photo, err := src.Capture(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), photo.Path)
			return err
		},
	}
	addCaptureFlags(cmd.Flags())
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Detect handwritten text in a photo",
		Long: `Send a photo to the text detection service and print the text found.

Without a file the most recent capture is analyzed.

Examples:
  handscan analyze note.jpg
  handscan analyze --format json --save-response
  handscan analyze note.jpg --max-kb 512 --language de`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			out, err := resolveOutput(cfg, flags)
			if err != nil {
				return err
			}
			analyzer, err := a.analyzer(analysisOptions(cfg, flags))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			var res *scan.Result
			if len(args) == 0 {
				res, err = analyzer.AnalyzeLatest(ctx, captureStore(cfg, flags))
			} else {
				res, err = analyzer.AnalyzeFile(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	addAnalysisFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().String("output-dir", "", "capture directory searched when no file is given")
	return cmd
}

func newSnapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Take a photo and detect its text in one step",
		Long: `Capture a photo with the configured camera command and analyze it.

Examples:
  handscan snap
  handscan snap --format json --max-kb 800`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			out, err := resolveOutput(cfg, flags)
			if err != nil {
				return err
			}
			src, err := captureSource(cfg, flags)
			if err != nil {
				return err
			}
			analyzer, err := a.analyzer(analysisOptions(cfg, flags))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), scan.AnalyzingMessage)
			res, err := analyzer.Snap(ctx, src)
			if err != nil {
				return err
			}
			return printResult(cmd, res, out)
		},
	}
	addAnalysisFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	addCaptureFlags(cmd.Flags())
	return cmd
}
