// Package config loads wprollup settings from an optional TOML file.
//
// Every key is optional; a missing file yields Default(). The progress
// policy mirrors the instance-wide "progress calculation" setting:
//
//	[progress]
//	done_ratio = "field"    # aggregate from leaves (default)
//	done_ratio = "status"   # a status default ratio wins over aggregation
//	done_ratio = "disabled" # never aggregate done ratio
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/HendryAvila/wprollup/internal/rollup"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "WPROLLUP_CONFIG"

// Done ratio modes.
const (
	DoneRatioField    = "field"
	DoneRatioStatus   = "status"
	DoneRatioDisabled = "disabled"
)

// Log modes.
const (
	LogModeDev  = "dev"
	LogModeProd = "prod"
)

// Config holds all runtime settings.
type Config struct {
	DataDir   string
	LogMode   string
	LogLevel  string
	DoneRatio string

	// MaxTreeDepth bounds the depth rendered by wp_tree.
	MaxTreeDepth int
}

type fileConfig struct {
	DataDir      string `toml:"data_dir"`
	LogMode      string `toml:"log_mode"`
	LogLevel     string `toml:"log_level"`
	MaxTreeDepth int    `toml:"max_tree_depth"`
	Progress     struct {
		DoneRatio string `toml:"done_ratio"`
	} `toml:"progress"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:      filepath.Join(home, ".wprollup"),
		LogMode:      LogModeProd,
		LogLevel:     "info",
		DoneRatio:    DoneRatioField,
		MaxTreeDepth: 10,
	}
}

// DefaultPath returns $WPROLLUP_CONFIG or ~/.wprollup/config.toml.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return filepath.Join(Default().DataDir, "config.toml")
}

// Load reads the TOML file at path over Default(). A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	if meta.IsDefined("data_dir") {
		cfg.DataDir = expandHome(strings.TrimSpace(raw.DataDir))
	}
	if meta.IsDefined("log_mode") {
		cfg.LogMode = strings.ToLower(strings.TrimSpace(raw.LogMode))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if meta.IsDefined("max_tree_depth") {
		cfg.MaxTreeDepth = raw.MaxTreeDepth
	}
	if meta.IsDefined("progress", "done_ratio") {
		cfg.DoneRatio = strings.ToLower(strings.TrimSpace(raw.Progress.DoneRatio))
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	switch c.LogMode {
	case LogModeDev, LogModeProd:
	default:
		return fmt.Errorf("log_mode %q: want %q or %q", c.LogMode, LogModeDev, LogModeProd)
	}
	switch c.DoneRatio {
	case DoneRatioField, DoneRatioStatus, DoneRatioDisabled:
	default:
		return fmt.Errorf("progress.done_ratio %q: want %q, %q or %q",
			c.DoneRatio, DoneRatioField, DoneRatioStatus, DoneRatioDisabled)
	}
	if c.MaxTreeDepth < 1 {
		return fmt.Errorf("max_tree_depth %d: must be at least 1", c.MaxTreeDepth)
	}
	return nil
}

// Policy maps the done ratio mode onto the roll-up policy.
func (c Config) Policy() rollup.Policy {
	return rollup.Policy{
		DoneRatioDisabled:     c.DoneRatio == DoneRatioDisabled,
		UseStatusForDoneRatio: c.DoneRatio == DoneRatioStatus,
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
