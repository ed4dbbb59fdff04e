// Package config handles loading and managing mediaview configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ServerConfig describes the media server the client talks to.
type ServerConfig struct {
	URL            string  `toml:"url"`             // Base URL (default: http://localhost:8080)
	TimeoutSeconds int     `toml:"timeout_seconds"` // Per-request timeout
	RateLimitQPS   float64 `toml:"rate_limit_qps"`  // Outbound request budget; 0 disables
}

// ViewerConfig holds defaults for a freshly opened viewer.
type ViewerConfig struct {
	SlideshowDelayMS int  `toml:"slideshow_delay_ms"`
	Random           bool `toml:"random"`
}

// CacheConfig holds file-list cache configuration.
type CacheConfig struct {
	Path     string `toml:"path"`
	Disabled bool   `toml:"disabled"` // Keep file lists in memory only

	// RefreshSchedule is the cron expression `warm --watch` re-fetches on.
	RefreshSchedule string `toml:"refresh_schedule"`
}

// Config represents the mediaview configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Viewer ViewerConfig `toml:"viewer"`
	Cache  CacheConfig  `toml:"cache"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	configPath string
}

// DefaultHome returns the default mediaview home directory.
// Respects MEDIAVIEW_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("MEDIAVIEW_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediaview"
	}
	return filepath.Join(home, ".mediaview")
}

// Load reads the configuration from the specified file.
// If path is empty, uses <home>/config.toml. A non-empty homeOverride
// replaces the default home directory.
func Load(path, homeOverride string) (*Config, error) {
	homeDir := DefaultHome()
	if homeOverride != "" {
		homeDir = expandPath(homeOverride)
	}

	if path == "" {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir:    homeDir,
		configPath: path,
		// Defaults
		Server: ServerConfig{
			URL:            "http://localhost:8080",
			TimeoutSeconds: 30,
			RateLimitQPS:   20,
		},
		Viewer: ViewerConfig{
			SlideshowDelayMS: 3000,
		},
		Cache: CacheConfig{
			Path:            filepath.Join(homeDir, "cache.db"),
			RefreshSchedule: "*/30 * * * *",
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Expand ~ in paths
	cfg.Cache.Path = expandPath(cfg.Cache.Path)

	if cfg.Server.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("server.timeout_seconds must not be negative, got %d", cfg.Server.TimeoutSeconds)
	}
	if cfg.Server.RateLimitQPS < 0 {
		return nil, fmt.Errorf("server.rate_limit_qps must not be negative, got %v", cfg.Server.RateLimitQPS)
	}

	return cfg, nil
}

// ConfigFilePath returns the path the configuration was (or would be) loaded from.
func (c *Config) ConfigFilePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(c.HomeDir, "config.toml")
}

// EnsureHomeDir creates the home directory if it does not exist.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0700)
}

// LogPath returns the file the TUI writes its log to while it owns the terminal.
func (c *Config) LogPath() string {
	return filepath.Join(c.HomeDir, "mediaview.log")
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
