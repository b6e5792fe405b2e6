// Package config loads fascicolo settings from a YAML file, FASCICOLO_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys understood by Load.
const (
	KeyDatabase       = "database"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyMetricsEnabled = "metrics.enabled"
)

// EnvPrefix is prepended to every environment override, e.g.
// FASCICOLO_LOG_LEVEL.
const EnvPrefix = "FASCICOLO"

// DefaultFile is the config file name searched in the working directory.
const DefaultFile = "fascicolo.yaml"

// Config is the resolved configuration.
type Config struct {
	Database string
	Log      LogConfig
	Metrics  MetricsConfig

	// File is the config file that was read, empty when none was found.
	File string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

// MetricsConfig toggles the stdout metric exporter.
type MetricsConfig struct {
	Enabled bool
}

var validLogFormats = map[string]bool{"text": true, "json": true}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDatabase, "fascicolo.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsEnabled, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags lets flags override file and environment values. flagKeys
// maps flag names to config keys; flags missing from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, flagKeys map[string]string) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path, or DefaultFile from the working directory when path is
// empty, and returns the validated configuration. A missing default file
// is not an error; a missing explicit path is.
func Load(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Database: v.GetString(KeyDatabase),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool(KeyMetricsEnabled),
		},
		File: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown log levels and formats and an empty database.
func (c *Config) Validate() error {
	var problems []string
	if c.Database == "" {
		problems = append(problems, "database must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	if !validLogFormats[c.Log.Format] {
		problems = append(problems, fmt.Sprintf("log.format %q is invalid (valid values: text, json)", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	switch l.Level {
	case "debug", "info", "warn", "error":
		if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
			return 0, err
		}
		return lvl, nil
	default:
		return 0, fmt.Errorf("log.level %q is invalid (valid values: debug, info, warn, error)", l.Level)
	}
}
