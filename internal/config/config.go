package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	LogLevel     string       `mapstructure:"log_level"`
	Hotkey       string       `mapstructure:"hotkey"`
	HotkeyDarwin string       `mapstructure:"hotkey_darwin"`
	Audio        AudioConfig  `mapstructure:"audio"`
	Export       ExportConfig `mapstructure:"export"`

	path string
	v    *viper.Viper
}

type AudioConfig struct {
	DeviceID          string  `mapstructure:"device_id"` // PortAudio device name, "" for the default input
	FramesPerBuffer   int     `mapstructure:"frames_per_buffer"`
	MaxRecordingBytes int64   `mapstructure:"max_recording_bytes"` // 0 = RIFF limit
	InputPair         int     `mapstructure:"input_pair"`          // base channel, always even
	Gain              float64 `mapstructure:"gain"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
	CopyPath  bool   `mapstructure:"copy_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("hotkey", "Alt+R")
	v.SetDefault("hotkey_darwin", "Ctrl+R")
	v.SetDefault("audio.device_id", "")
	v.SetDefault("audio.frames_per_buffer", 512)
	v.SetDefault("audio.max_recording_bytes", 0)
	v.SetDefault("audio.input_pair", 0)
	v.SetDefault("audio.gain", 1.0)
	v.SetDefault("export.directory", defaultExportDir())
	v.SetDefault("export.copy_path", false)
}

// Load reads the config from the platform config path, falling back to
// defaults when no file exists.
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads the config at path. CAPTURE_TRAY_* environment variables
// override file values, e.g. CAPTURE_TRAY_AUDIO_DEVICE_ID.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("CAPTURE_TRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{path: path, v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that the recorder cannot recover from at runtime.
func (c *Config) Validate() error {
	if c.Audio.InputPair < 0 || c.Audio.InputPair%2 != 0 {
		return fmt.Errorf("audio.input_pair must be a non-negative even channel index, got %d", c.Audio.InputPair)
	}
	if c.Audio.Gain < 0 || c.Audio.Gain > 1 {
		return fmt.Errorf("audio.gain must be between 0 and 1, got %v", c.Audio.Gain)
	}
	if c.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("audio.frames_per_buffer must not be negative, got %d", c.Audio.FramesPerBuffer)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	if c.v == nil {
		c.v = viper.New()
	}
	if c.path == "" {
		c.path = configPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	c.v.Set("log_level", c.LogLevel)
	c.v.Set("hotkey", c.Hotkey)
	c.v.Set("hotkey_darwin", c.HotkeyDarwin)
	c.v.Set("audio.device_id", c.Audio.DeviceID)
	c.v.Set("audio.frames_per_buffer", c.Audio.FramesPerBuffer)
	c.v.Set("audio.max_recording_bytes", c.Audio.MaxRecordingBytes)
	c.v.Set("audio.input_pair", c.Audio.InputPair)
	c.v.Set("audio.gain", c.Audio.Gain)
	c.v.Set("export.directory", c.Export.Directory)
	c.v.Set("export.copy_path", c.Export.CopyPath)

	return c.v.WriteConfigAs(c.path)
}

// Path is the file Save writes to.
func (c *Config) Path() string { return c.path }

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "capture-tray", "config.json")
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Music")
}
