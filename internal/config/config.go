// Package config manages the application configuration file and
// environment overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// Default values
	DefaultPort        = 5089
	DefaultLogLevel    = "info"
	DefaultDataDirName = ".shortsup"
	DefaultPrivacy     = "public"
	DefaultTags        = "shorts,upload,automated"
	DefaultUploadDelay = 10 // seconds between queued uploads

	// Environment variable names
	EnvPort     = "SHORTSUP_PORT"
	EnvLogLevel = "SHORTSUP_LOG_LEVEL"
	EnvDataDir  = "SHORTSUP_DATA_DIR"

	// File names inside the data directory
	ConfigFilename = "config.json"
	DBFilename     = "shortsup.db"
)

// Preferences holds the defaults applied to every scheduled upload.
type Preferences struct {
	DefaultPrivacy     string `json:"default_privacy"`
	DefaultTags        string `json:"default_tags"`
	UploadDelaySeconds int    `json:"upload_delay"`
}

// OAuthClient holds the YouTube API client credentials.
type OAuthClient struct {
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Config is the persisted application configuration plus runtime settings
// resolved from the environment.
type Config struct {
	UploadFolder string      `json:"upload_folder"`
	LogFolder    string      `json:"log_folder"`
	Preferences  Preferences `json:"upload_preferences"`
	YouTube      OAuthClient `json:"youtube,omitempty"`

	// Runtime settings, not persisted.
	Port     int    `json:"-"`
	LogLevel string `json:"-"`
	DataDir  string `json:"-"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Preferences: Preferences{
			DefaultPrivacy:     DefaultPrivacy,
			DefaultTags:        DefaultTags,
			UploadDelaySeconds: DefaultUploadDelay,
		},
		Port:     DefaultPort,
		LogLevel: DefaultLogLevel,
		DataDir:  defaultDataDir(),
	}
}

// Load reads the configuration file from the data directory, falling back
// to defaults when the file does not exist. Environment overrides are
// applied afterwards.
func Load() (*Config, error) {
	cfg := Default()

	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	data, err := os.ReadFile(cfg.ConfigPath())
	switch {
	case err != nil && os.IsNotExist(err):
		// First run, keep defaults.
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config file")
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if cfg.Preferences.UploadDelaySeconds <= 0 {
		cfg.Preferences.UploadDelaySeconds = DefaultUploadDelay
	}
	if cfg.Preferences.DefaultPrivacy == "" {
		cfg.Preferences.DefaultPrivacy = DefaultPrivacy
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, errors.Errorf("invalid %s value: %q", EnvPort, p)
		}
		cfg.Port = port
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
	}

	return cfg, nil
}

// Save writes the persistent part of the configuration to the data
// directory, creating it if necessary.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create data directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.Wrap(os.WriteFile(c.ConfigPath(), data, 0600), "failed to write config file")
}

// ConfigPath returns the location of the configuration file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, ConfigFilename)
}

// DBPath returns the location of the history database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFilename)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDirName
	}
	return filepath.Join(home, DefaultDataDirName)
}
