package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir   = ".mural-publisher"
	envManagementToken = "CONTENTFUL_MANAGEMENT_TOKEN"
	envSpaceID         = "CONTENTFUL_SPACE_ID"
	minBackoff         = 100 * time.Millisecond
)

//go:embed config/settings.yaml
var defaultSettings string

// PhotoSettings controls how photos are validated and prepared
type PhotoSettings struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxWidth          int      `yaml:"max_width"`
	JPEGQuality       int      `yaml:"jpeg_quality"`
}

// AssetProcessingSettings configures polling for asset processing
type AssetProcessingSettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingSettings configures the log file
type LoggingSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	RootDirectory   string                  `yaml:"root_directory"`
	ContentType     string                  `yaml:"content_type"`
	Environment     string                  `yaml:"environment"`
	Locale          string                  `yaml:"locale"`
	APIURL          string                  `yaml:"api_url"`
	UploadURL       string                  `yaml:"upload_url"`
	Photos          PhotoSettings           `yaml:"photos"`
	AssetProcessing AssetProcessingSettings `yaml:"asset_processing"`
	Logging         LoggingSettings         `yaml:"logging"`
	MetricsFile     string                  `yaml:"metrics_file"`
}

// RetryPolicy converts the asset processing settings into a polling policy
func (s *Settings) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: s.AssetProcessing.MaxAttempts,
		Backoff:     LinearBackoff(s.AssetProcessing.Backoff),
		Timeout:     s.AssetProcessing.Timeout,
	}
}

// Credentials are the secrets read from the environment
type Credentials struct {
	ManagementToken string
	SpaceID         string
}

// ConfigOverrides holds command-line overrides of the settings file
type ConfigOverrides struct {
	SettingsPath *string
	LogLevel     *string
	LogFile      *string
	MetricsFile  *string
}

// Config holds settings, credentials and overrides
type Config struct {
	Settings    *Settings
	Credentials Credentials
	Overrides   *ConfigOverrides
}

// NewConfig loads settings and credentials, applying overrides
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	var (
		settings *Settings
		err      error
	)
	if overrides != nil && overrides.SettingsPath != nil {
		// Explicit settings file must exist
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
	} else {
		if err := ensureConfigExists(); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settings, err = loadSettings(filepath.Join(defaultConfigDir, "settings.yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if overrides != nil {
		if overrides.LogLevel != nil {
			settings.Logging.Level = *overrides.LogLevel
		}
		if overrides.LogFile != nil {
			settings.Logging.File = *overrides.LogFile
		}
		if overrides.MetricsFile != nil {
			settings.MetricsFile = *overrides.MetricsFile
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}

	return &Config{
		Settings:    settings,
		Credentials: creds,
		Overrides:   overrides,
	}, nil
}

// LoadCredentials reads the management token and space id from the
// environment, loading a .env file from the working directory first if present.
func LoadCredentials() (Credentials, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, &ConfigError{Key: ".env", Err: err}
	}

	creds := Credentials{
		ManagementToken: strings.TrimSpace(os.Getenv(envManagementToken)),
		SpaceID:         strings.TrimSpace(os.Getenv(envSpaceID)),
	}
	if creds.ManagementToken == "" {
		return Credentials{}, &ConfigError{Key: envManagementToken, Err: errors.New("environment variable is not set")}
	}
	if creds.SpaceID == "" {
		return Credentials{}, &ConfigError{Key: envSpaceID, Err: errors.New("environment variable is not set")}
	}
	return creds, nil
}

// Validate checks settings and assigns defaults where needed
func (s *Settings) Validate() error {
	s.ContentType = strings.TrimSpace(s.ContentType)
	s.Environment = strings.TrimSpace(s.Environment)
	s.Locale = strings.TrimSpace(s.Locale)

	if s.ContentType == "" {
		s.ContentType = "mural"
	}
	if s.Environment == "" {
		s.Environment = "master"
	}
	if s.Locale == "" {
		s.Locale = "en-US"
	}
	if s.RootDirectory == "" {
		s.RootDirectory = "contentfull_data_post"
	}
	if len(s.Photos.AllowedExtensions) == 0 {
		s.Photos.AllowedExtensions = []string{".jpg", ".jpeg", ".png"}
	}
	for i, ext := range s.Photos.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Photos.AllowedExtensions[i] = ext
	}
	if s.Photos.MaxWidth < 0 {
		return &ConfigError{Key: "photos.max_width", Err: fmt.Errorf("must not be negative, got %d", s.Photos.MaxWidth)}
	}
	if s.Photos.JPEGQuality <= 0 || s.Photos.JPEGQuality > 100 {
		s.Photos.JPEGQuality = 85
	}
	if s.AssetProcessing.MaxAttempts < 1 {
		s.AssetProcessing.MaxAttempts = 5
	}
	if s.AssetProcessing.Backoff < minBackoff {
		if s.AssetProcessing.Backoff != 0 {
			log.Printf("Warning: asset_processing.backoff is %s, defaulting to %s (minimum)", s.AssetProcessing.Backoff, minBackoff)
			s.AssetProcessing.Backoff = minBackoff
		} else {
			s.AssetProcessing.Backoff = 2 * time.Second
		}
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.File == "" {
		s.Logging.File = "mural-publisher.log"
	}
	return nil
}

// loadSettings loads settings from a YAML file with fallback to the embedded defaults
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		data = []byte(defaultSettings)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// loadSettingsRequired loads settings from a YAML file, failing if it doesn't exist
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, &ConfigError{Key: "settings", Err: err}
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, &ConfigError{Key: "settings", Err: fmt.Errorf("parsing %s: %w", settingsPath, err)}
	}
	return &settings, nil
}

// ensureConfigExists creates the config directory and writes settings.yaml if needed
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := filepath.Join(defaultConfigDir, "settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}
	return nil
}
