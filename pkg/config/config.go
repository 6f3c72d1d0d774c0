// Package config loads the livethemes configuration file. The file is
// JSONC — comments and trailing commas are allowed — and goes through
// the same scanner the theme files do.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ekinertac/vscode-live-themes/pkg/jsonc"
)

// Config holds the global configuration.
type Config struct {
	BaseDir string `json:"-"`

	PageSize int    `json:"page_size" validate:"min=1,max=100"`
	MaxPages int    `json:"max_pages" validate:"min=1,max=50"`
	LogLevel string `json:"log_level" validate:"oneof=debug info warn error none"`

	// CacheTTL bounds how long marketplace query results are reused.
	CacheTTL Duration `json:"cache_ttl"`

	// ServerAddr is the listen address for the serve command.
	ServerAddr string `json:"server_addr" validate:"required"`

	// EditorSettings is the settings.json the wizard writes to. Empty
	// means the platform default location.
	EditorSettings string `json:"editor_settings"`
}

// Duration is a time.Duration that unmarshals from strings like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := jsonc.Unmarshal(b, &s); err != nil {
		var n int64
		if err := jsonc.Unmarshal(b, &n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// BaseDir returns the directory where configuration and downloaded
// themes live: LIVETHEMES_DIR if set, otherwise ~/.livethemes.
func BaseDir() string {
	if dir := os.Getenv("LIVETHEMES_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".livethemes")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(BaseDir(), "config.json")
}

func defaults() *Config {
	return &Config{
		BaseDir:    BaseDir(),
		PageSize:   10,
		MaxPages:   1,
		LogLevel:   "error",
		CacheTTL:   Duration(15 * time.Minute),
		ServerAddr: ":8417",
	}
}

// Load reads config.json from the base dir, applying defaults for a
// missing file and validating the result.
func Load() (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := jsonc.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// StoragePath is where the per-sort list files and search index live.
func (c *Config) StoragePath() string {
	return filepath.Join(c.BaseDir, "themes")
}

// ThemesPath is where extracted theme extensions live.
func (c *Config) ThemesPath() string {
	return filepath.Join(c.BaseDir, "themes", "themes")
}

// ArchivesPath is where VSIX downloads land before extraction.
func (c *Config) ArchivesPath() string {
	return filepath.Join(c.BaseDir, "themes", "archives")
}

// LogPath is the log file the CLI writes to, keeping the terminal free
// for the TUI.
func (c *Config) LogPath() string {
	return filepath.Join(c.BaseDir, "logs", "livethemes.log")
}

// Template returns a documented config template.
func Template() string {
	return `{
  // Themes fetched per marketplace page, and how many pages per sort order.
  "page_size": 10,
  "max_pages": 1,

  // debug, info, warn, error or none
  "log_level": "error",

  // How long marketplace query results are reused (Go duration string).
  "cache_ttl": "15m",

  // Listen address for 'livethemes serve'.
  "server_addr": ":8417",

  // settings.json the wizard writes to. Empty uses the platform default.
  "editor_settings": "",
}
`
}

// EnsureTemplate writes the documented template if no config exists.
func EnsureTemplate() (string, error) {
	if err := os.MkdirAll(BaseDir(), 0o755); err != nil {
		return "", fmt.Errorf("create base dir: %w", err)
	}
	path := Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(Template()), 0o644); err != nil {
			return "", fmt.Errorf("write config template: %w", err)
		}
	}
	return path, nil
}
