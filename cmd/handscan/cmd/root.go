package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/version"
	"github.com/MeKo-Tech/handscan/internal/vision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by one command tree: the config loader, the
// resolved configuration and how the remote detector is built.
type app struct {
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config

	newDetector func(cfg *config.Config) (scan.TextDetector, error)
}

// NewRootCommand builds the complete handscan command tree.
func NewRootCommand() *cobra.Command {
	a := &app{
		loader:      config.NewLoaderWithViper(viper.New()),
		newDetector: visionDetector,
	}

	rootCmd := &cobra.Command{
		Use:   "handscan",
		Short: "Photograph handwriting and turn it into text",
		Long: `handscan captures or loads a photo of handwritten notes, encodes it as a
base64 payload within a size budget and sends it to the Google Cloud Vision
text detection service.

Examples:
  handscan analyze note.jpg
  handscan snap --format json
  handscan batch scans/ --recursive --workers 8
  handscan pdf notebook.pdf --pages 1-3
  handscan serve --port 8080`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), a.cfg)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"config file (default is handscan.yaml in ., $HOME, $XDG_CONFIG_HOME/handscan, /etc/handscan)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("api-base-url", "", "override the Vision API base URL")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	v := a.loader.GetViper()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("vision.base_url", flags.Lookup("api-base-url"))

	rootCmd.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCaptureCmd(a),
		newAnalyzeCmd(a),
		newSnapCmd(a),
		newBatchCmd(a),
		newPDFCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// GetRootCommand returns a fresh root command for tests.
func GetRootCommand() *cobra.Command {
	return NewRootCommand()
}

// Execute runs the CLI and returns the process exit code. Failures are
// printed as the message a user would see in the app.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), scan.UserMessage(err))
		return 1
	}
	return 0
}

func (a *app) loadConfig() error {
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// config returns the resolved configuration, loading it when a command runs
// outside the root's pre-run hook.
func (a *app) config() (*config.Config, error) {
	if a.cfg == nil {
		if err := a.loadConfig(); err != nil {
			return nil, err
		}
	}
	return a.cfg, nil
}

func (a *app) analyzer(opts scan.Options) (*scan.Analyzer, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	detector, err := a.newDetector(cfg)
	if err != nil {
		return nil, err
	}
	return scan.NewAnalyzer(detector, opts)
}

func visionDetector(cfg *config.Config) (scan.TextDetector, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := vision.NewClient(cfg.ToVisionConfig(version.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return client, nil
}

func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}
	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
}
