// Package config loads instrq settings from an optional TOML file layered
// under INSTRQ_ environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INSTRQ_"

// Config is the full instrq configuration.
type Config struct {
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
	Journal JournalConfig `toml:"journal" envPrefix:"JOURNAL_"`
	Output  OutputConfig  `toml:"output" envPrefix:"OUTPUT_"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level     string `toml:"level" env:"LEVEL"`
	Format    string `toml:"format" env:"FORMAT"`
	Timestamp bool   `toml:"timestamp" env:"TIMESTAMP"`
}

// JournalConfig points at the receipt journal. An empty path disables it.
type JournalConfig struct {
	Path string `toml:"path" env:"PATH"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Format string `toml:"format" env:"FORMAT"`
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "logfmt", "json"}
	outputFormats = []string{"text", "json"}
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads path (skipped when empty), applies environment overrides,
// fills defaults and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config env failed: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): %s", path, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = def.Output.Format
	}
}

// Validate checks enumerated values.
func Validate(cfg Config) error {
	if !slices.Contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf("log.level %q invalid (want one of %s)", cfg.Log.Level, strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		return fmt.Errorf("log.format %q invalid (want one of %s)", cfg.Log.Format, strings.Join(logFormats, ", "))
	}
	if !slices.Contains(outputFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format %q invalid (want one of %s)", cfg.Output.Format, strings.Join(outputFormats, ", "))
	}
	return nil
}
