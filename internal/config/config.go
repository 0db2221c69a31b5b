package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Home      string
	PrefsFile string `mapstructure:"prefs_file"`
	Property  string
	Sink      SinkConfig
	Watch     WatchConfig
	Log       LogConfig
}

// SinkConfig selects where the thermal property is written.
type SinkConfig struct {
	Kind string // "setprop", "dir" or "memory"
	Dir  string
}

// WatchConfig holds daemon settings.
type WatchConfig struct {
	Interval time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// Sink kinds.
const (
	SinkSetprop = "setprop"
	SinkDir     = "dir"
	SinkMemory  = "memory"
)

// Load reads configuration from file and env. path overrides the config
// file location; otherwise THERMALCTL_CONFIG or
// $XDG_CONFIG_HOME/thermalctl/config.toml is used if present. Env var
// overrides use prefix THERMALCTL_.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("home", defaultHome())
	v.SetDefault("prefs_file", "")
	v.SetDefault("property", "vendor.thermal.mode")
	v.SetDefault("sink.kind", SinkSetprop)
	v.SetDefault("sink.dir", "")
	v.SetDefault("watch.interval", "2s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("THERMALCTL_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "thermalctl"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("THERMALCTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the default location is optional.
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Sink.Kind {
	case SinkSetprop, SinkMemory:
	case SinkDir:
		if c.SinkDir() == "" {
			return fmt.Errorf("sink.dir is required for the %q sink", SinkDir)
		}
	default:
		return fmt.Errorf("unknown sink kind %q", c.Sink.Kind)
	}
	if c.Property == "" {
		return fmt.Errorf("property must not be empty")
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("watch.interval must not be negative")
	}
	return nil
}

// PrefsPath is the preferences file, defaulting to <home>/prefs.json.
func (c Config) PrefsPath() string {
	if c.PrefsFile != "" {
		return c.PrefsFile
	}
	return filepath.Join(c.Home, "prefs.json")
}

// SinkDir is the property directory, defaulting to <home>/props.
func (c Config) SinkDir() string {
	if c.Sink.Dir != "" {
		return c.Sink.Dir
	}
	if c.Home == "" {
		return ""
	}
	return filepath.Join(c.Home, "props")
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		// Android shells run without HOME.
		return filepath.Join(os.TempDir(), ".thermalctl")
	}
	return filepath.Join(home, ".thermalctl")
}
