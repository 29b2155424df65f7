package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "handscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "HANDSCAN"

	// DotEnvFile is read from the working directory before the environment.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v          *viper.Viper
	dotEnvPath string
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings made with viper.BindPFlag are honoured.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper(), dotEnvPath: DotEnvFile}
}

// NewLoaderWithViper creates a loader on a private viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, dotEnvPath: DotEnvFile}
}

// WithDotEnv changes the .env file path; "" disables .env loading.
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

// Load loads configuration from files, .env, environment variables and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithoutValidation is Load without the final Validate call.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.LoadWithFileWithoutValidation("")
}

// LoadWithFile loads configuration from a specific file path, or searches
// the standard locations when configFile is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation loads configuration without validating it.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine when searching; defaults and env apply.
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// loadDotEnv exports variables from the .env file. Variables already set in
// the environment win.
func (l *Loader) loadDotEnv() error {
	if l.dotEnvPath == "" {
		return nil
	}
	if err := godotenv.Load(l.dotEnvPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading %s: %w", l.dotEnvPath, err)
	}
	return nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "handscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "handscan"))
	}

	l.v.AddConfigPath("/etc/handscan")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key; viper only maps environment variables
// onto keys it knows about.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("vision.base_url", defaults.Vision.BaseURL)
	l.v.SetDefault("vision.api_key", defaults.Vision.APIKey)
	l.v.SetDefault("vision.feature", defaults.Vision.Feature)
	l.v.SetDefault("vision.max_results", defaults.Vision.MaxResults)
	l.v.SetDefault("vision.language_hints", defaults.Vision.LanguageHints)
	l.v.SetDefault("vision.timeout_sec", defaults.Vision.TimeoutSec)

	l.v.SetDefault("encoder.max_size_kb", defaults.Encoder.MaxSizeKB)
	l.v.SetDefault("encoder.max_dimension", defaults.Encoder.MaxDimension)
	l.v.SetDefault("encoder.auto_orient", defaults.Encoder.AutoOrient)

	l.v.SetDefault("capture.output_dir", defaults.Capture.OutputDir)
	l.v.SetDefault("capture.command", defaults.Capture.Command)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.save_response", defaults.Output.SaveResponse)

	l.v.SetDefault("text.normalize", defaults.Text.Normalize)
	l.v.SetDefault("text.trim", defaults.Text.Trim)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.fail_fast", defaults.Batch.FailFast)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.rate_limit_enabled", defaults.Server.RateLimitEnabled)
	l.v.SetDefault("server.requests_per_minute", defaults.Server.RequestsPerMinute)
	l.v.SetDefault("server.requests_per_hour", defaults.Server.RequestsPerHour)
	l.v.SetDefault("server.max_requests_per_day", defaults.Server.MaxRequestsPerDay)
	l.v.SetDefault("server.max_data_per_day", defaults.Server.MaxDataPerDay)
}

// WriteDefaultConfigFile writes DefaultConfig as YAML to filename, refusing
// to overwrite unless force is set.
func WriteDefaultConfigFile(filename string, force bool) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	if !force {
		if _, err := os.Stat(filename); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", filename)
		}
	}
	data, err := MarshalYAML(DefaultConfig())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(filename, data, 0o600)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "handscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "handscan"))
	}

	return append(paths, "/etc/handscan")
}
