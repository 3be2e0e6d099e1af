package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Display     DisplayConfig    `toml:"display"`
	Follow      FollowConfig     `toml:"follow"`
	Theme       ThemeConfig      `toml:"theme"`
	Keybindings KeybindingConfig `toml:"keybindings"`
}

// DisplayConfig holds display options.
type DisplayConfig struct {
	TabWidth        int    `toml:"tab_width"`
	SyntaxHighlight bool   `toml:"syntax_highlight"`
	SyntaxTheme     string `toml:"syntax_theme"`
}

// FollowConfig controls tail-follow behavior.
type FollowConfig struct {
	PollMs int `toml:"poll_ms"`
}

// ThemeConfig defines the status bar colors.
type ThemeConfig struct {
	StatusBar     string `toml:"status_bar"`
	StatusBarText string `toml:"status_bar_text"`
	HelpText      string `toml:"help_text"`
}

// KeybindingConfig allows customizing keybindings.
type KeybindingConfig struct {
	Quit       []string `toml:"quit"`
	ScrollUp   []string `toml:"scroll_up"`
	ScrollDown []string `toml:"scroll_down"`
	PageUp     []string `toml:"page_up"`
	PageDown   []string `toml:"page_down"`
	Top        []string `toml:"top"`
	Bottom     []string `toml:"bottom"`
	Search     []string `toml:"search"`
	Filter     []string `toml:"filter"`
	NextMatch  []string `toml:"next_match"`
	PrevMatch  []string `toml:"prev_match"`
	Follow     []string `toml:"follow"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			TabWidth:        8,
			SyntaxHighlight: false,
			SyntaxTheme:     "monokai",
		},
		Follow: FollowConfig{
			PollMs: 250,
		},
		Theme: ThemeConfig{
			StatusBar:     "236", // darker gray background
			StatusBarText: "252", // light gray text
			HelpText:      "240",
		},
		Keybindings: KeybindingConfig{
			Quit:       []string{"q", "ctrl+c"},
			ScrollUp:   []string{"k", "up"},
			ScrollDown: []string{"j", "down"},
			PageUp:     []string{"b", "pgup", "ctrl+u"},
			PageDown:   []string{"pgdown", "ctrl+d", " "},
			Top:        []string{"g", "home"},
			Bottom:     []string{"G", "end"},
			Search:     []string{"/"},
			Filter:     []string{"&"},
			NextMatch:  []string{"n"},
			PrevMatch:  []string{"N"},
			Follow:     []string{"f"},
		},
	}
}

// PollInterval returns the follow poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.Follow.PollMs <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Follow.PollMs) * time.Millisecond
}

// Load loads config from file, falling back to defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	if cfg.Display.TabWidth <= 0 {
		cfg.Display.TabWidth = 8
	}

	return cfg, nil
}

// getConfigPath returns the config file path.
func getConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mview", "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "mview", "config.toml")
}
