package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultServerURL is the public demo collection
const DefaultServerURL = "https://sei-111-todo-backend.herokuapp.com/todos"

// EnvPrefix prefixes environment overrides, e.g. TODOS_SERVER_URL
const EnvPrefix = "TODOS"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	UI      UIConfig      `mapstructure:"ui"`
	Journal JournalConfig `mapstructure:"journal"`
	Logging LoggingConfig `mapstructure:"logging"`

	// File is the config file that was read, empty if none
	File string `mapstructure:"-"`
}

// ServerConfig holds the remote collection settings
type ServerConfig struct {
	URL     string        `mapstructure:"url"`     // Collection resource, e.g. https://host/todos
	Timeout time.Duration `mapstructure:"timeout"` // 0 = no timeout
}

// UIConfig holds TUI configuration
type UIConfig struct {
	AltScreen    bool `mapstructure:"alt_screen"`
	ConfirmClear bool `mapstructure:"confirm_clear"` // Ask before clearing completed todos
}

// JournalConfig holds activity journal configuration
type JournalConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"` // Oldest entries are pruned past this
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: 0,
		},
		UI: UIConfig{
			AltScreen:    true,
			ConfirmClear: true,
		},
		Journal: JournalConfig{
			Enabled:    true,
			Path:       filepath.Join(defaultDataPath(), "journal.db"),
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "todos.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the per-user data directory for logs and the journal
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "todos")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "todos")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "todos")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "todos")
	}
}

// RegisterFlags adds the config-related flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default "+filepath.Join(DefaultConfigDir(), "config.yaml")+")")
	fs.String("server-url", "", "to-do collection URL")
	fs.String("log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()

	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("ui.alt_screen", cfg.UI.AltScreen)
	v.SetDefault("ui.confirm_clear", cfg.UI.ConfirmClear)
	v.SetDefault("journal.enabled", cfg.Journal.Enabled)
	v.SetDefault("journal.path", cfg.Journal.Path)
	v.SetDefault("journal.max_entries", cfg.Journal.MaxEntries)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads configuration from file, environment and flags (highest wins).
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	explicit := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
		if f := fs.Lookup("server-url"); f != nil {
			if err := v.BindPFlag("server.url", f); err != nil {
				return nil, fmt.Errorf("error binding flag: %w", err)
			}
		}
		if f := fs.Lookup("log-level"); f != nil {
			if err := v.BindPFlag("logging.level", f); err != nil {
				return nil, fmt.Errorf("error binding flag: %w", err)
			}
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	var err error
	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Journal.Path, err = expandHome(cfg.Journal.Path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail at first request
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid server url %q: must be an absolute http(s) URL", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("invalid server timeout %s", c.Server.Timeout)
	}
	if c.Journal.MaxEntries < 1 {
		return fmt.Errorf("invalid journal max_entries %d: must be at least 1", c.Journal.MaxEntries)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// SaveConfig writes cfg as YAML to path, or to the default location when path is empty.
// It returns the file written.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("ui.alt_screen", cfg.UI.AltScreen)
	v.Set("ui.confirm_clear", cfg.UI.ConfirmClear)

	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("journal.max_entries", cfg.Journal.MaxEntries)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
