// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Backend names, in default priority order.
var KnownBackends = []string{"ssstik", "tiksave", "library", "tikwm"}

// KnownPlayers are the media players --play can launch.
var KnownPlayers = []string{"mpv", "vlc", "iina", "celluloid"}

// maxTimeout is the hard request ceiling of the hosting platform.
const maxTimeout = 10 * time.Second

// Endpoints holds the base URL of every upstream.
type Endpoints struct {
	SSSTik    string `toml:"ssstik"`
	TikSave   string `toml:"tiksave"`
	TikWM     string `toml:"tikwm"`
	TikTokWeb string `toml:"tiktok_web"`
	TikTokAPI string `toml:"tiktok_api"`
}

// Config holds all application configuration.
type Config struct {
	Listen          string        `toml:"listen"`
	Timeout         time.Duration `toml:"timeout"`
	MinViews        int64         `toml:"min_views"`
	PreferredCDN    string        `toml:"preferred_cdn"`
	Backends        []string      `toml:"backends"`
	LibraryVersions []string      `toml:"library_versions"`
	Quality         string        `toml:"quality"`
	History         bool          `toml:"history"`
	RelayBase       string        `toml:"relay_base"`
	DownloadDir     string        `toml:"download_dir"`
	Player          string        `toml:"player"`
	VerboseErrors   bool          `toml:"verbose_errors"`
	Debug           bool          `toml:"debug"`
	Endpoints       Endpoints     `toml:"endpoints"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timeout:         8500 * time.Millisecond,
		MinViews:        1000,
		PreferredCDN:    "tikcdn.io",
		Backends:        slices.Clone(KnownBackends),
		LibraryVersions: []string{"v3", "v2", "v1"},
		Quality:         "sd",
		History:         true,
		RelayBase:       "https://dl.tiksnap.app/download",
		DownloadDir:     "~/Downloads/tiksnap",
		Player:          "mpv",
		Endpoints: Endpoints{
			SSSTik:    "https://ssstik.io",
			TikSave:   "https://tiksave.io",
			TikWM:     "https://www.tikwm.com",
			TikTokWeb: "https://www.tiktok.com",
			TikTokAPI: "https://api16-normal-c-useast1a.tiktokv.com",
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tiksnap"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tiksnap"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Timeout <= 0 || c.Timeout >= maxTimeout {
		return fmt.Errorf("timeout %s out of range (must be >0 and <%s)", c.Timeout, maxTimeout)
	}
	if c.MinViews < 0 {
		return fmt.Errorf("min_views cannot be negative")
	}

	if len(c.Backends) == 0 {
		return fmt.Errorf("backends cannot be empty")
	}
	seen := make(map[string]bool)
	for _, b := range c.Backends {
		b = strings.ToLower(b)
		if !slices.Contains(KnownBackends, b) {
			return fmt.Errorf("unsupported backend %q (valid: %s)", b, strings.Join(KnownBackends, ", "))
		}
		if seen[b] {
			return fmt.Errorf("backend %q listed twice", b)
		}
		seen[b] = true
	}

	for _, v := range c.LibraryVersions {
		if v != "v1" && v != "v2" && v != "v3" {
			return fmt.Errorf("unsupported library version %q (valid: v3, v2, v1)", v)
		}
	}

	if c.Quality != "sd" && c.Quality != "hd" {
		return fmt.Errorf("unsupported quality %q (valid: sd, hd)", c.Quality)
	}

	if !slices.Contains(KnownPlayers, c.Player) {
		return fmt.Errorf("unsupported player %q (valid: %s)", c.Player, strings.Join(KnownPlayers, ", "))
	}

	endpoints := map[string]string{
		"ssstik":     c.Endpoints.SSSTik,
		"tiksave":    c.Endpoints.TikSave,
		"tikwm":      c.Endpoints.TikWM,
		"tiktok_web": c.Endpoints.TikTokWeb,
		"tiktok_api": c.Endpoints.TikTokAPI,
	}
	for name, raw := range endpoints {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("endpoint %s must be an https URL, got %q", name, raw)
		}
	}

	if c.RelayBase != "" {
		if u, err := url.Parse(c.RelayBase); err != nil || u.Host == "" {
			return fmt.Errorf("invalid relay_base %q", c.RelayBase)
		}
	}

	return nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the resolution log database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tiksnap", "history.db"), nil
}
