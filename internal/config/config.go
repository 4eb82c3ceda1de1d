// Package config loads the service configuration from YAML, then lets
// EVENTDETAIL_* environment variables override individual fields.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
}

// LinksConfig controls outbound link resolution.
type LinksConfig struct {
	// AllowedSchemes restricts resolved links; empty allows any scheme.
	AllowedSchemes []string `yaml:"allowed_schemes" json:"allowed_schemes" env:"ALLOWED_SCHEMES" envSeparator:","`
}

// CaptureConfig controls headless-browser previews of rendered screens.
type CaptureConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" env:"ENABLED"`
	// Schedule is a 5-field cron expression.
	Schedule string `yaml:"schedule" json:"schedule" env:"SCHEDULE"`
	// BaseURL is where the renderer is reachable from the browser. Empty
	// means http://<listen>.
	BaseURL        string `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	OutputDir      string `yaml:"output_dir" json:"output_dir" env:"OUTPUT_DIR"`
	Width          int    `yaml:"width" json:"width" env:"WIDTH"`
	Height         int    `yaml:"height" json:"height" env:"HEIGHT"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// SessionsConfig controls the in-memory viewer screen registry.
type SessionsConfig struct {
	MaxIdleMinutes int    `yaml:"max_idle_minutes" json:"max_idle_minutes" env:"MAX_IDLE_MINUTES"`
	PurgeSchedule  string `yaml:"purge_schedule" json:"purge_schedule" env:"PURGE_SCHEDULE"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// Theme is the default palette ("dark" or "light"); requests may
	// override it.
	Theme string `yaml:"theme" json:"theme" env:"THEME"`

	// Timezone is the IANA zone used to print upcoming dates.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE"`

	// EventsFile is an optional YAML dataset replacing the embedded one.
	EventsFile string `yaml:"events_file" json:"events_file" env:"EVENTS_FILE"`

	// AssetsDir holds the images named by image_url and host_url, served
	// under /assets/.
	AssetsDir string `yaml:"assets_dir" json:"assets_dir" env:"ASSETS_DIR"`

	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`

	// UpcomingCount is how many future occurrences the screen lists.
	UpcomingCount int `yaml:"upcoming_count" json:"upcoming_count" env:"UPCOMING_COUNT"`

	Links    LinksConfig    `yaml:"links" json:"links" envPrefix:"LINKS_"`
	Capture  CaptureConfig  `yaml:"capture" json:"capture" envPrefix:"CAPTURE_"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions" envPrefix:"SESSIONS_"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	// The env "init" option allocates it so EVENTDETAIL_BASIC_AUTH_* can
	// enable auth; Normalize drops it again when both values are empty.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" env:",init" envPrefix:"BASIC_AUTH_"`
}

const envPrefix = "EVENTDETAIL_"

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Theme:         "dark",
		Timezone:      "Asia/Ho_Chi_Minh",
		AssetsDir:     "./assets",
		LogLevel:      "info",
		UpcomingCount: 3,
		Links: LinksConfig{
			AllowedSchemes: []string{"https", "http"},
		},
		Capture: CaptureConfig{
			Enabled:        false,
			Schedule:       "0 * * * *",
			OutputDir:      "./cache/previews",
			Width:          390,
			Height:         844,
			TimeoutSeconds: 30,
		},
		Sessions: SessionsConfig{
			MaxIdleMinutes: 30,
			PurgeSchedule:  "*/5 * * * *",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	switch strings.ToLower(c.Theme) {
	case "dark", "light":
		c.Theme = strings.ToLower(c.Theme)
	default:
		c.Theme = d.Theme
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.AssetsDir == "" {
		c.AssetsDir = d.AssetsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.UpcomingCount < 0 {
		c.UpcomingCount = 0
	}
	if c.Links.AllowedSchemes == nil {
		c.Links.AllowedSchemes = d.Links.AllowedSchemes
	}

	if c.Capture.Schedule == "" {
		c.Capture.Schedule = d.Capture.Schedule
	}
	if c.Capture.OutputDir == "" {
		c.Capture.OutputDir = d.Capture.OutputDir
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = d.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = d.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = d.Capture.TimeoutSeconds
	}

	if c.Sessions.MaxIdleMinutes <= 0 {
		c.Sessions.MaxIdleMinutes = d.Sessions.MaxIdleMinutes
	}
	if c.Sessions.PurgeSchedule == "" {
		c.Sessions.PurgeSchedule = d.Sessions.PurgeSchedule
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Validate reports configuration that Normalize cannot repair.
func (c *Config) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Capture.Schedule); err != nil {
		return fmt.Errorf("capture.schedule %q: %w", c.Capture.Schedule, err)
	}
	if _, err := parser.Parse(c.Sessions.PurgeSchedule); err != nil {
		return fmt.Errorf("sessions.purge_schedule %q: %w", c.Sessions.PurgeSchedule, err)
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "") != (c.BasicAuth.Password == "") {
		return errors.New("basic_auth requires both username and password")
	}
	return nil
}

// BaseURL is the capture base URL, derived from Listen when unset.
func (c *Config) BaseURL() string {
	if c.Capture.BaseURL != "" {
		return strings.TrimRight(c.Capture.BaseURL, "/")
	}
	return "http://" + c.Listen
}

// Load loads configuration from the given YAML path and applies
// environment overrides.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - If the file exists, it is unmarshalled and normalized.
//   - EVENTDETAIL_* variables then override any field.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg, err := loadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// ApplyEnv overrides cfg fields from EVENTDETAIL_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventdetail-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
