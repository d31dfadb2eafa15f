// Package config loads application configuration in layers: built-in
// defaults, then an optional yaml file, then RETAIN_-prefixed
// environment variables, then command-line flags. Later layers win.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "RETAIN_"

// Config holds the application configuration.
type Config struct {
	DBPath string `koanf:"db" validate:"required"`
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	Session SessionConfig `koanf:"session"`
}

// SessionConfig bounds the study sessions the engine hands out.
type SessionConfig struct {
	MaxCards     int    `koanf:"max_cards" validate:"gt=0"`
	FocusSection string `koanf:"focus_section"`
}

// Load assembles the configuration from defaults, the config file (if
// it exists), the environment, and the given flag set, then validates
// the result.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"db":                "retain.db",
		"listen":            "127.0.0.1:8080",
		"session.max_cards": 20,
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	// RETAIN_SESSION_MAX_CARDS maps to session.max_cards.
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			switch key {
			case "session_max_cards":
				key = "session.max_cards"
			case "session_focus_section":
				key = "session.focus_section"
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
