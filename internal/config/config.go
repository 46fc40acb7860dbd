// Package config loads guard's CLI configuration the way the example
// pack's koanf-based services do: defaults, then an optional
// .guard.yaml, then command-line flags, each layer overriding the last.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the resolved settings for one CLI invocation.
type Config struct {
	// Pattern is the glob used to select files when a directory is
	// passed where a single file is expected (default "*.guard").
	Pattern string `koanf:"pattern"`
	// SortOrder is one of "alphabetical", "last-modified", "filesystem".
	SortOrder string `koanf:"sort-order"`
	// Verbose enables full evaluation-tree output instead of a summary.
	Verbose bool `koanf:"verbose"`
	// Format is the output encoding for parse-tree mode: "json" or "yaml".
	Format string `koanf:"format"`
}

func defaults() (*koanf.Koanf, error) {
	k := koanf.New(".")
	defaults := map[string]any{
		"pattern":    "*.guard",
		"sort-order": "alphabetical",
		"verbose":    false,
		"format":     "json",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, oops.Code("INTERNAL").Wrapf(err, "loading default config")
	}
	return k, nil
}

// Load builds a Config from defaults, an optional configPath file, and
// flags, in that order of increasing precedence.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k, err := defaults()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("IO_ERROR").With("path", configPath).Wrapf(err, "loading config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("INTERNAL").Wrapf(err, "loading CLI flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("INTERNAL").Wrapf(err, "unmarshaling config")
	}
	return &cfg, nil
}
