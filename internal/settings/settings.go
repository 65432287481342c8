// Package settings loads jsync's own runtime settings (not the project
// descriptor) from .jsync.yaml, JSYNC_* environment variables and CLI flags.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/launchcg/jsync/pkg/level"
)

// ConfigName is the settings file base name looked up in the project and home directories.
const ConfigName = ".jsync"

// ToolchainSettings describes the compiler levels the local toolchain supports.
type ToolchainSettings struct {
	Min string `mapstructure:"min"`
	Max string `mapstructure:"max"`
}

// Settings holds all runtime configuration for a jsync session.
type Settings struct {
	Toolchain  ToolchainSettings `mapstructure:"toolchain"`
	Debounce   time.Duration     `mapstructure:"debounce"`
	RetryDelay time.Duration     `mapstructure:"retry_delay"`
	Host       string            `mapstructure:"host"`
	CacheDir   string            `mapstructure:"cache_dir"`
	LogFormat  string            `mapstructure:"log_format"`
}

// New returns a viper instance wired for jsync: defaults, the .jsync settings
// file from projectDir or the home directory, and JSYNC_* environment variables.
func New(projectDir string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	if projectDir != "" {
		v.AddConfigPath(projectDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("JSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("toolchain.min", "1.8")
	v.SetDefault("toolchain.max", "25")
	v.SetDefault("debounce", 100*time.Millisecond)
	v.SetDefault("retry_delay", 200*time.Millisecond)
	v.SetDefault("host", "eclipse")
	v.SetDefault("cache_dir", "")
	v.SetDefault("log_format", "text")
}

// Load reads the settings file (a missing file is not an error) and
// unmarshals the merged configuration.
func Load(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// ToolchainRange parses the toolchain bounds.
func (s Settings) ToolchainRange() (level.Range, error) {
	lo, err := level.Parse(s.Toolchain.Min)
	if err != nil {
		return level.Range{}, fmt.Errorf("toolchain.min: %w", err)
	}
	hi, err := level.Parse(s.Toolchain.Max)
	if err != nil {
		return level.Range{}, fmt.Errorf("toolchain.max: %w", err)
	}
	if hi < lo {
		return level.Range{}, fmt.Errorf("toolchain.max %s is lower than toolchain.min %s", hi, lo)
	}
	return level.Range{Min: lo, Max: hi}, nil
}

// ResolveCacheDir returns the configured cache directory, defaulting to ~/.jsync/cache.
func (s Settings) ResolveCacheDir() (string, error) {
	if s.CacheDir != "" {
		return s.CacheDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".jsync", "cache"), nil
}
