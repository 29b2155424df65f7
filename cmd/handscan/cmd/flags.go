package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/spf13/pflag"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// Changed flags override values that came from the config file or the
// environment.

func overrideString(flags *pflag.FlagSet, name string, dst *string) {
	if flags.Changed(name) {
		*dst, _ = flags.GetString(name)
	}
}

func overrideInt(flags *pflag.FlagSet, name string, dst *int) {
	if flags.Changed(name) {
		*dst, _ = flags.GetInt(name)
	}
}

func overrideInt64(flags *pflag.FlagSet, name string, dst *int64) {
	if flags.Changed(name) {
		*dst, _ = flags.GetInt64(name)
	}
}

func overrideBool(flags *pflag.FlagSet, name string, dst *bool) {
	if flags.Changed(name) {
		*dst, _ = flags.GetBool(name)
	}
}

func overrideStrings(flags *pflag.FlagSet, name string, dst *[]string) {
	if flags.Changed(name) {
		*dst, _ = flags.GetStringSlice(name)
	}
}

// addAnalysisFlags registers the flags every analyzing command shares.
func addAnalysisFlags(flags *pflag.FlagSet) {
	flags.Int("max-kb", 0, "payload size budget in KB (0 sends the file unchanged)")
	flags.Int("max-dimension", 0, "downscale so neither side exceeds this many pixels")
	flags.String("feature", "", "detection feature: DOCUMENT_TEXT_DETECTION or TEXT_DETECTION")
	flags.StringSlice("language", nil, "language hints, e.g. de,en")
	flags.Int("max-results", 0, "maximum results requested from the service")
	flags.Bool("no-orient", false, "do not apply the EXIF orientation tag")
}

// analysisOptions merges the shared analysis flags into the configured
// options.
func analysisOptions(cfg *config.Config, flags *pflag.FlagSet) scan.Options {
	opts := cfg.ToScanOptions()
	overrideInt(flags, "max-kb", &opts.MaxSizeKB)
	overrideInt(flags, "max-dimension", &opts.MaxDimension)
	overrideString(flags, "feature", &opts.Feature)
	overrideStrings(flags, "language", &opts.LanguageHints)
	overrideInt(flags, "max-results", &opts.MaxResults)
	if noOrient, _ := flags.GetBool("no-orient"); noOrient {
		opts.AutoOrient = false
	}
	return opts
}

func validateFormat(format string, valid ...string) error {
	if slices.Contains(valid, format) {
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(valid, ", "))
}

// writeOutput writes content to file, or to w when file is empty.
func writeOutput(w io.Writer, file, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if file == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// siblingPath returns "<dir>/<stem><suffix>" for the file at path.
func siblingPath(path, dir, suffix string) string {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := filepath.Base(path)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+suffix)
}
