// Package config loads runtime configuration from a YAML file,
// MEMODECK_* environment variables, and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "MEMODECK_"

// Config holds all runtime configuration.
type Config struct {
	DBPath           string  `koanf:"db_path" validate:"required"`
	DesiredRetention float64 `koanf:"desired_retention" validate:"gt=0,lte=1"`
	MaxIntervalDays  int     `koanf:"max_interval_days" validate:"gt=0"`
	LogLevel         string  `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:           "memodeck.db",
		DesiredRetention: 0.9,
		MaxIntervalDays:  36500,
		LogLevel:         "info",
	}
}

// Load assembles the configuration from the optional YAML file at path,
// MEMODECK_* environment variables, and the parsed flag set. A missing
// config file is not an error; an unreadable one is.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	for key, value := range map[string]any{
		"db_path":           defaults.DBPath,
		"desired_retention": defaults.DesiredRetention,
		"max_interval_days": defaults.MaxIntervalDays,
		"log_level":         defaults.LogLevel,
	} {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("setting defaults: %w", err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	// MEMODECK_DB_PATH becomes db_path and so on.
	err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	// Flag names use dashes; map them onto the underscore keys. Only
	// flags the user actually set override earlier layers.
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("reading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
