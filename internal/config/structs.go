//nolint:lll
package config

// Config represents the complete configuration for handscan. It covers every
// command (analyze, snap, batch, pdf, serve) and is loaded from configuration
// files, environment variables, a .env file and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Remote OCR service
	Vision VisionConfig `mapstructure:"vision" yaml:"vision" json:"vision"`

	// Payload encoding
	Encoder EncoderConfig `mapstructure:"encoder" yaml:"encoder" json:"encoder"`

	// Camera capture
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture" json:"capture"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Text post-processing
	Text TextConfig `mapstructure:"text" yaml:"text" json:"text"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// VisionConfig contains the images:annotate client settings.
type VisionConfig struct {
	BaseURL       string   `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	APIKey        string   `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Feature       string   `mapstructure:"feature" yaml:"feature" json:"feature"`
	MaxResults    int      `mapstructure:"max_results" yaml:"max_results" json:"max_results"`
	LanguageHints []string `mapstructure:"language_hints" yaml:"language_hints,omitempty" json:"language_hints,omitempty"`
	TimeoutSec    int      `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// EncoderConfig contains payload compression settings.
type EncoderConfig struct {
	// MaxSizeKB of 0 sends file bytes unchanged.
	MaxSizeKB    int  `mapstructure:"max_size_kb" yaml:"max_size_kb" json:"max_size_kb"`
	MaxDimension int  `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	AutoOrient   bool `mapstructure:"auto_orient" yaml:"auto_orient" json:"auto_orient"`
}

// CaptureConfig contains camera capture settings.
type CaptureConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Command   string `mapstructure:"command" yaml:"command" json:"command"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	File         string `mapstructure:"file" yaml:"file" json:"file"`
	SaveResponse bool   `mapstructure:"save_response" yaml:"save_response" json:"save_response"`
}

// TextConfig contains post-processing toggles for detected text.
type TextConfig struct {
	Normalize bool `mapstructure:"normalize" yaml:"normalize" json:"normalize"`
	Trim      bool `mapstructure:"trim" yaml:"trim" json:"trim"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers   int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	FailFast  bool `mapstructure:"fail_fast" yaml:"fail_fast" json:"fail_fast"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string `mapstructure:"host" yaml:"host" json:"host"`
	Port              int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin        string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB       int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec        int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout   int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimitEnabled  bool   `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int    `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int    `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64  `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}
