// Package config loads solver, objective, logging and metrics settings with
// Viper. Sources are merged lowest to highest: defaults, an optional TOML
// file, then WGP_* environment variables (WGP_SOLVER_NODE_LIMIT and so on).
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/gitrdm/gowgp/pkg/engine"
	"github.com/gitrdm/gowgp/pkg/wgp"
)

// EnvPrefix is the environment variable prefix bound by Load.
const EnvPrefix = "WGP"

// Config is the full configuration tree.
type Config struct {
	Solver    SolverConfig    `mapstructure:"solver"`
	Objective ObjectiveConfig `mapstructure:"objective"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// SolverConfig tunes the default simplex engine.
type SolverConfig struct {
	// TimeLimit bounds a single solve; 0 means no limit.
	TimeLimit time.Duration `mapstructure:"time_limit"`
	// NodeLimit bounds branch-and-bound nodes; 0 means no limit.
	NodeLimit            int     `mapstructure:"node_limit"`
	Tolerance            float64 `mapstructure:"tolerance"`
	IntegralityTolerance float64 `mapstructure:"integrality_tolerance"`
	// Workers is the goroutine count for batch solves; 0 uses one per job.
	Workers int `mapstructure:"workers"`
}

// ObjectiveConfig holds objective assembly defaults.
type ObjectiveConfig struct {
	// PenaltyMode is "by_sense" or "both".
	PenaltyMode string `mapstructure:"penalty_mode"`
}

// LogConfig selects the logger output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig toggles Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("solver.time_limit", "0s")
	v.SetDefault("solver.node_limit", 100000)
	v.SetDefault("solver.tolerance", 1e-9)
	v.SetDefault("solver.integrality_tolerance", 1e-6)
	v.SetDefault("solver.workers", 0)

	v.SetDefault("objective.penalty_mode", "by_sense")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metrics.enabled", false)
}

// New returns a Viper instance with defaults and WGP_* environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration from defaults, the TOML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithViper unmarshals configuration from a provided Viper instance
// without validating it.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// EngineOptions converts the solver section to simplex engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTimeLimit(c.Solver.TimeLimit),
		engine.WithNodeLimit(c.Solver.NodeLimit),
		engine.WithTolerance(c.Solver.Tolerance),
		engine.WithIntegralityTolerance(c.Solver.IntegralityTolerance),
	}
}

// PenaltyMode resolves objective.penalty_mode.
func (c *Config) PenaltyMode() (wgp.PenaltyMode, error) {
	return wgp.ParsePenaltyMode(c.Objective.PenaltyMode)
}

// ModelOptions returns the model options implied by the configuration: the
// simplex engine tuned by the solver section and the default penalty mode.
// Loggers and metrics are wired by the caller.
func (c *Config) ModelOptions() ([]wgp.ModelOption, error) {
	mode, err := c.PenaltyMode()
	if err != nil {
		return nil, err
	}
	return []wgp.ModelOption{
		wgp.WithEngine(engine.SimplexFactory(c.EngineOptions()...)),
		wgp.WithDefaultPenalty(mode),
	}, nil
}
