package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/vision"
)

const redacted = "***"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Vision: VisionConfig{
			BaseURL:    vision.DefaultBaseURL,
			Feature:    vision.FeatureDocumentText,
			TimeoutSec: int(vision.DefaultTimeout / time.Second),
		},
		Encoder: EncoderConfig{
			MaxSizeKB:    1024,
			MaxDimension: 0,
			AutoOrient:   true,
		},
		Capture: CaptureConfig{
			OutputDir: "captures",
			Command:   "libcamera-still -n -o {output}",
		},
		Output: OutputConfig{
			Format: "text",
		},
		Text: TextConfig{
			Normalize: true,
			Trim:      true,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			MaxUploadMB:       20,
			TimeoutSec:        60,
			ShutdownTimeout:   10,
			RateLimitEnabled:  false,
			RequestsPerMinute: 60,
			RequestsPerHour:   1000,
			MaxRequestsPerDay: 5000,
			MaxDataPerDay:     1 << 30,
		},
	}
}

// Validate checks every setting that does not need the network. A missing
// API key is reported by RequireAPIKey so offline commands keep working.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	validFeatures := []string{vision.FeatureDocumentText, vision.FeatureText}
	if !contains(validFeatures, c.Vision.Feature) {
		return fmt.Errorf("invalid vision feature: %s (must be one of: %s)", c.Vision.Feature, strings.Join(validFeatures, ", "))
	}
	if c.Vision.BaseURL != "" {
		u, err := url.Parse(c.Vision.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid vision base url: %q", c.Vision.BaseURL)
		}
	}
	if c.Vision.MaxResults < 0 {
		return fmt.Errorf("invalid vision max results: %d (must not be negative)", c.Vision.MaxResults)
	}
	if c.Vision.TimeoutSec <= 0 {
		return fmt.Errorf("invalid vision timeout: %d (must be positive)", c.Vision.TimeoutSec)
	}

	if c.Encoder.MaxSizeKB < 0 {
		return fmt.Errorf("invalid encoder max size: %d (must not be negative)", c.Encoder.MaxSizeKB)
	}
	if c.Encoder.MaxDimension < 0 {
		return fmt.Errorf("invalid encoder max dimension: %d (must not be negative)", c.Encoder.MaxDimension)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}

	return nil
}

// RequireAPIKey fails when no Vision API key is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Vision.APIKey) == "" {
		return fmt.Errorf("%w: set vision.api_key, %s_VISION_API_KEY or add it to .env", vision.ErrMissingAPIKey, EnvPrefix)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Vision.APIKey != "" {
		c.Vision.APIKey = redacted
	}
	return c
}

// ToVisionConfig converts to the client configuration.
func (c *Config) ToVisionConfig(userAgent string) vision.Config {
	return vision.Config{
		BaseURL:   c.Vision.BaseURL,
		APIKey:    c.Vision.APIKey,
		Timeout:   time.Duration(c.Vision.TimeoutSec) * time.Second,
		UserAgent: userAgent,
	}
}

// ToScanOptions converts to analyzer options.
func (c *Config) ToScanOptions() scan.Options {
	return scan.Options{
		MaxSizeKB:     c.Encoder.MaxSizeKB,
		MaxDimension:  c.Encoder.MaxDimension,
		AutoOrient:    c.Encoder.AutoOrient,
		Feature:       c.Vision.Feature,
		MaxResults:    c.Vision.MaxResults,
		LanguageHints: c.Vision.LanguageHints,
		Clean: scan.CleanOptions{
			Normalize: c.Text.Normalize,
			Trim:      c.Text.Trim,
		},
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
