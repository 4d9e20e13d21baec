// Package config loads the CLI configuration from defaults, an optional YAML
// file, APIPROBE_ environment variables and command line flags, in that
// order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the CLI configuration.
type Config struct {
	// Spec is the path or URL of the API description to probe.
	Spec string `koanf:"spec"`
	// BaseURL is the server requests are sent to.
	BaseURL string `koanf:"base_url"`
	// Seed drives deterministic case generation.
	Seed uint64 `koanf:"seed"`
	// Cases is the number of cases generated per operation and mode.
	Cases int `koanf:"cases"`
	// Workers bounds concurrent case generation and sending.
	Workers int `koanf:"workers"`
	// Steps is the length of each stateful scenario.
	Steps int `koanf:"steps"`
	// Scenarios is the number of scenarios run per link source operation.
	Scenarios int `koanf:"scenarios"`
	// Timeout bounds each request.
	Timeout time.Duration `koanf:"timeout"`
	// LogLevel sets the console log level.
	LogLevel string `koanf:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Seed:      1,
		Cases:     5,
		Workers:   4,
		Steps:     2,
		Scenarios: 1,
		Timeout:   30 * time.Second,
		LogLevel:  "info",
	}
}

const envPrefix = "APIPROBE_"

// Load builds the configuration: defaults, then the YAML file when given,
// then environment, then changed flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
	}), nil); err != nil {
		return Config{}, err
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		}), nil); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
