// Package config loads media-reclassify settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/media-reclassify/internal/runlog"
)

// FileName is the config file looked up in the working directory when no path is given.
const FileName = "media-reclassify.yaml"

const (
	DefaultBatchSize     = 50
	DefaultBaseURL       = "/uploads"
	DefaultRetentionDays = 30
)

// Config represents the media-reclassify.yaml configuration file.
type Config struct {
	DB        string    `yaml:"db"`
	UploadDir string    `yaml:"upload_dir"`
	BaseURL   string    `yaml:"base_url"`
	BatchSize int       `yaml:"batch_size"`
	Log       LogConfig `yaml:"log"`
}

// LogConfig holds run-log settings.
type LogConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	ErrorOnly     bool   `yaml:"error_only"`
	RetentionDays int    `yaml:"retention_days"`
}

// Path picks the config file: explicit flag, then $MEDIA_RECLASSIFY_CONFIG, then ./media-reclassify.yaml.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("MEDIA_RECLASSIFY_CONFIG"); env != "" {
		return env
	}
	return FileName
}

// Load reads the config file at path.
// Returns zero Config and nil error if the file does not exist.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// ApplyEnv overlays the MEDIA_RECLASSIFY_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MEDIA_RECLASSIFY_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("MEDIA_RECLASSIFY_UPLOADS"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("MEDIA_RECLASSIFY_BASE_URL"); v != "" {
		c.BaseURL = v
	}
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.DB == "" {
		home, _ := os.UserHomeDir()
		c.DB = filepath.Join(home, ".media-reclassify", "library.db")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Log.Dir == "" && c.UploadDir != "" {
		c.Log.Dir = filepath.Join(c.UploadDir, runlog.DirName)
	}
	if c.Log.RetentionDays <= 0 {
		c.Log.RetentionDays = DefaultRetentionDays
	}
}

// Validate reports settings that make a run impossible.
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload dir is not set (use --uploads, $MEDIA_RECLASSIFY_UPLOADS or upload_dir)")
	}
	info, err := os.Stat(c.UploadDir)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload dir %s is not a directory", c.UploadDir)
	}
	return nil
}
