package app

import "errors"

// Config holds everything the CLI resolved for one invocation.
type Config struct {
	ConfigPath string // HCL run file; empty selects an embedded demo
	RunName    string // Run block name, or demo name when ConfigPath is empty

	LogFormat string
	LogLevel  string

	Seed       int64 // Overrides the run seed when non-zero
	Iterations int   // Overrides the run iterations when non-zero
	Dump       bool  // Print the graph after training
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && cfg.RunName == "" {
		return nil, errors.New("a run name or a config path is required")
	}
	if cfg.Iterations < 0 {
		return nil, errors.New("iterations must not be negative")
	}
	return &cfg, nil
}
