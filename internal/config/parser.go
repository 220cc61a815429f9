// Package config contains the upload client configuration.
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/immuni/upload-client/internal/province"
	"github.com/immuni/upload-client/internal/sizeprofile"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables overriding the configuration file.
const (
	EnvBaseURL   = "IMMUNI_BASE_URL"
	EnvStateDir  = "IMMUNI_STATE_DIR"
	EnvUserAgent = "IMMUNI_USER_AGENT"
)

// DefaultTimeoutSeconds is the default per-request timeout.
const DefaultTimeoutSeconds = 60

// ReadConfig reads the configuration from the path
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c, err := ParseConfig(b)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	c.path = path
	return c, err
}

// ParseConfig returns config from JSON bytes. Environment variables
// override the values read from JSON.
func ParseConfig(b []byte) (*Config, error) {
	var c Config

	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}

	c.ApplyEnv()

	if err := c.Default(); err != nil {
		return nil, errors.Wrap(err, "defaulting")
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating")
	}

	return &c, nil
}

// LoadEnv loads environment variables from the given dotenv files. With
// no files, it loads .env in the current directory. Variables already
// set in the environment win.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "loading dotenv")
	}
	return nil
}

// Profile contains the size profile settings.
type Profile struct {
	// Capacity is the number of genuine shapes we remember.
	Capacity int `json:"capacity"`

	// SeedShapes replaces the built-in seed shapes.
	SeedShapes []sizeprofile.Shape `json:"seed_shapes"`
}

// Config for the upload client
type Config struct {
	// Private settings
	Comment string `json:"_"`
	Version int64  `json:"_version"`

	BaseURL        string   `json:"base_url"`
	UserAgent      string   `json:"user_agent"`
	StateDir       string   `json:"state_dir"`
	TimeoutSeconds int64    `json:"timeout_seconds"`
	Provinces      []string `json:"provinces"`
	Profile        Profile  `json:"profile"`

	path string
}

// Path returns the path from which we read the config, if any.
func (c *Config) Path() string {
	return c.path
}

// ApplyEnv overrides settings using the environment.
func (c *Config) ApplyEnv() {
	if value := os.Getenv(EnvBaseURL); value != "" {
		c.BaseURL = value
	}
	if value := os.Getenv(EnvStateDir); value != "" {
		c.StateDir = value
	}
	if value := os.Getenv(EnvUserAgent); value != "" {
		c.UserAgent = value
	}
}

// Default config settings
func (c *Config) Default() error {
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.StateDir = filepath.Join(home, ".immuni")
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Profile.Capacity == 0 {
		c.Profile.Capacity = sizeprofile.DefaultCapacity
	}
	if len(c.Profile.SeedShapes) <= 0 {
		c.Profile.SeedShapes = sizeprofile.DefaultShapes()
	}
	return nil
}

// Validate the config file
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		URL, err := url.Parse(c.BaseURL)
		if err != nil {
			return errors.Wrap(err, "base_url")
		}
		if URL.Scheme != "https" && URL.Scheme != "http" {
			return errors.Errorf("base_url: unsupported scheme: %q", URL.Scheme)
		}
	}
	if c.TimeoutSeconds < 0 {
		return errors.Errorf("timeout_seconds: must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.Profile.Capacity < 1 || c.Profile.Capacity > sizeprofile.MaxCapacity {
		return errors.Errorf("profile.capacity: must be 1 <= cap <= %d, got %d",
			sizeprofile.MaxCapacity, c.Profile.Capacity)
	}
	if _, err := c.Catalog(); err != nil {
		return errors.Wrap(err, "provinces")
	}
	return nil
}

// Catalog returns the province catalog, restricted to the configured
// provinces if any.
func (c *Config) Catalog() (province.Catalog, error) {
	if len(c.Provinces) <= 0 {
		return province.Default(), nil
	}
	return province.Restrict(province.Default(), c.Provinces)
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
