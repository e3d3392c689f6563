package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/refgraph/pkg/engine"
	"github.com/ritzau/refgraph/pkg/logging"
	"github.com/ritzau/refgraph/pkg/registry"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "refgraph.toml"

const envPrefix = "REFGRAPH_"

// Config holds all configuration for the application
type Config struct {
	Sources       []string `koanf:"sources"`
	Canonicalizer string   `koanf:"canonicalizer" validate:"oneof=identity path package"`
	BestEffort    bool     `koanf:"best-effort"`
	CountPolicy   string   `koanf:"count-policy" validate:"oneof=reject clamp"`
	Format        string   `koanf:"format" validate:"oneof=text json yaml"`
	Watch         bool     `koanf:"watch"`
	Verbosity     string   `koanf:"verbosity" validate:"omitempty,oneof=trace debug info warn warning error"`
	VerboseCnt    int      `koanf:"verbose" validate:"gte=0"`
	Concurrency   int      `koanf:"concurrency" validate:"gte=1,lte=256"`
	MaxHops       int      `koanf:"max-hops" validate:"gte=-1"`
	Metrics       bool     `koanf:"metrics"`
}

var validate = validator.New()

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"sources":       []string{},
		"canonicalizer": "identity",
		"best-effort":   false,
		"count-policy":  "reject",
		"format":        "text",
		"watch":         false,
		"verbosity":     "",
		"verbose":       0,
		"concurrency":   4,
		"max-hops":      -1,
		"metrics":       false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File. The default file is optional, an explicit one is not.
	path, explicit := configPath(f)
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: REFGRAPH_ (e.g., REFGRAPH_COUNT_POLICY=clamp, REFGRAPH_SOURCES="a.toml,b")
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its allowed values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if flag := f.Lookup("config"); flag != nil && flag.Value.String() != "" {
			return flag.Value.String(), true
		}
	}
	return DefaultFile, false
}

// envValue maps REFGRAPH_COUNT_POLICY to count-policy and splits list values
func envValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", "-")
	if key == "sources" {
		return key, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	return key, value
}

// LogLevel resolves the log level: an explicit verbosity wins, otherwise
// each -v steps down from warn (info, debug, trace).
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Verbosity != "" {
		return logging.ParseLevel(c.Verbosity)
	}

	switch {
	case c.VerboseCnt >= 3:
		return logging.LevelTrace, nil
	case c.VerboseCnt == 2:
		return slog.LevelDebug, nil
	case c.VerboseCnt == 1:
		return slog.LevelInfo, nil
	default:
		return slog.LevelWarn, nil
	}
}

// EngineOptions translates the configuration into engine options
func (c *Config) EngineOptions() ([]engine.Option, error) {
	canon, ok := registry.ByName(c.Canonicalizer)
	if !ok {
		return nil, fmt.Errorf("unknown canonicalizer: %q", c.Canonicalizer)
	}
	policy, err := engine.ParseCountPolicy(c.CountPolicy)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithCanonicalizer(canon),
		engine.WithCountPolicy(policy),
	}
	if c.BestEffort {
		opts = append(opts, engine.WithBestEffort())
	}
	return opts, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
