// Package config loads the service configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"heartapi/ml"
)

// Environment variables that override the file configuration.
const (
	EnvPort      = "HEART_PORT"
	EnvModelDir  = "HEART_MODEL_DIR"
	EnvLogLevel  = "HEART_LOG_LEVEL"
	EnvAuditPath = "HEART_AUDIT_PATH"
)

// Config is the root configuration object.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Model ModelConfig `yaml:"model"`
	Log   LogConfig   `yaml:"log"`
	Audit AuditConfig `yaml:"audit"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// ModelConfig locates the artifacts. Required turns a failed load into a
// startup error instead of a degraded service.
type ModelConfig struct {
	Dir            string `yaml:"dir"`
	ClassifierFile string `yaml:"classifier_file"`
	ScalerFile     string `yaml:"scaler_file"`
	FeaturesFile   string `yaml:"features_file"`
	Required       bool   `yaml:"required"`
	CacheSize      int    `yaml:"cache_size"`
	Watch          bool   `yaml:"watch"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuditConfig enables the SQLite prediction log when Path is set.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
		},
		Model: ModelConfig{
			Dir:            "models",
			ClassifierFile: ml.DefaultClassifierFile,
			ScalerFile:     ml.DefaultScalerFile,
			FeaturesFile:   ml.DefaultFeaturesFile,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrapf(err, "error reading config file: %s", path)
		default:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
			}
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvPort)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv(EnvModelDir); v != "" {
		c.Model.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvAuditPath); v != "" {
		c.Audit.Path = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Model.Dir == "" {
		return errors.New("model.dir is required")
	}
	if c.Model.CacheSize < 0 {
		return errors.Errorf("model.cache_size must not be negative: %d", c.Model.CacheSize)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// ArtifactPaths resolves the artifact files inside the model directory.
func (m ModelConfig) ArtifactPaths() ml.ArtifactPaths {
	paths := ml.DefaultArtifactPaths(m.Dir)
	if m.ClassifierFile != "" {
		paths.Classifier = joinDir(m.Dir, m.ClassifierFile)
	}
	if m.ScalerFile != "" {
		paths.Scaler = joinDir(m.Dir, m.ScalerFile)
	}
	if m.FeaturesFile != "" {
		paths.Features = joinDir(m.Dir, m.FeaturesFile)
	}
	return paths
}

func joinDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
