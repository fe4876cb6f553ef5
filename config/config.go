// Package config loads the host configuration.
//
// Sources are layered with koanf, later ones overriding earlier ones:
// defaults, a YAML file, VMREPL_* environment variables and command line
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"vmrepl/logger"
	"vmrepl/readline"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "VMREPL_"

// Engines and user interfaces the host knows about.
const (
	EngineShell = "shell"

	UISimple = "simple"
	UIGui    = "gui"
)

// Config is the complete host configuration.
type Config struct {
	Engine  string        `koanf:"engine" yaml:"engine"`
	UI      string        `koanf:"ui" yaml:"ui"`
	FPS     int           `koanf:"fps" yaml:"fps"`
	Banner  string        `koanf:"banner" yaml:"banner"`
	Prompt  PromptConfig  `koanf:"prompt" yaml:"prompt"`
	History HistoryConfig `koanf:"history" yaml:"history"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
	Debug   DebugConfig   `koanf:"debug" yaml:"debug"`
}

// PromptConfig holds the console prompts.
type PromptConfig struct {
	Primary   string `koanf:"primary" yaml:"primary"`
	Secondary string `koanf:"secondary" yaml:"secondary"`
}

// HistoryConfig configures the line history.
type HistoryConfig struct {
	// File is where history is kept between sessions; empty disables it.
	File string `koanf:"file" yaml:"file"`
	Size int    `koanf:"size" yaml:"size"`
}

// LogConfig configures the logger.
type LogConfig struct {
	File   string `koanf:"file" yaml:"file"`
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// DebugConfig holds debugging switches.
type DebugConfig struct {
	// Timing prints the run time of every statement.
	Timing bool `koanf:"timing" yaml:"timing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	log := logger.DefaultConfig()
	return &Config{
		Engine: EngineShell,
		UI:     UISimple,
		FPS:    15,
		Prompt: PromptConfig{
			Primary:   ">>> ",
			Secondary: "... ",
		},
		History: HistoryConfig{
			File: readline.DefaultHistoryFile(),
			Size: readline.DefaultHistorySize,
		},
		Log: LogConfig{
			File:   log.File,
			Level:  log.Level,
			Format: log.Format,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// not empty), the environment and flags. flags maps dotted keys such as
// "log.level" to values; nil entries are skipped.
func Load(path string, flags map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// VMREPL_PROMPT_PRIMARY -> prompt.primary
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "_", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := k.Load(mapProvider(nest(flags)), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be run.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine != EngineShell {
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}
	if c.UI != UISimple && c.UI != UIGui {
		errs = append(errs, fmt.Errorf("unknown ui %q (want %s or %s)", c.UI, UISimple, UIGui))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.History.Size < 0 {
		errs = append(errs, fmt.Errorf("history.size must not be negative, got %d", c.History.Size))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"engine": d.Engine,
		"ui":     d.UI,
		"fps":    d.FPS,
		"banner": d.Banner,
		"prompt": map[string]any{
			"primary":   d.Prompt.Primary,
			"secondary": d.Prompt.Secondary,
		},
		"history": map[string]any{
			"file": d.History.File,
			"size": d.History.Size,
		},
		"log": map[string]any{
			"file":   d.Log.File,
			"level":  d.Log.Level,
			"format": d.Log.Format,
		},
		"metrics": map[string]any{
			"addr": d.Metrics.Addr,
		},
		"debug": map[string]any{
			"timing": d.Debug.Timing,
		},
	}
}

// nest turns dotted keys into nested maps.
func nest(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range flat {
		if v == nil {
			continue
		}
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]any)
			if !ok {
				sub = make(map[string]any)
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = v
	}
	return out
}
