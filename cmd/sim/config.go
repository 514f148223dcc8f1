package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joshbohde/codel"
	"go.yaml.in/yaml/v3"
)

// Config describes a batch of simulations. Durations are strings parsed with
// time.ParseDuration.
type Config struct {
	SimulationTime string     `yaml:"simulation_time"`
	Deadline       string     `yaml:"deadline"`
	TargetLatency  string     `yaml:"target_latency"`
	MaxPending     int        `yaml:"max_pending"`
	MaxOutstanding int        `yaml:"max_outstanding"`
	Methods        []string   `yaml:"methods"`
	Scenarios      []Scenario `yaml:"scenarios"`
}

// Scenario is a pair of average arrival and service rates, per second.
type Scenario struct {
	Input  int64 `yaml:"input"`
	Output int64 `yaml:"output"`
}

// defaultScenarios run from balanced to heavily overloaded.
var defaultScenarios = []Scenario{
	{1000, 1000},
	{990, 1000},
	{950, 1000},
	{900, 1000},

	{1000, 900},
	{1000, 750},
	{1000, 500},
	{1000, 250},
	{1000, 100},
}

// LoadConfig reads a YAML file over base. Fields absent from the file keep
// the value from base.
func LoadConfig(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SimulationTime == "" {
		c.SimulationTime = "5s"
	}
	if c.Deadline == "" {
		c.Deadline = "1s"
	}
	if c.TargetLatency == "" {
		c.TargetLatency = "5ms"
	}
	if c.MaxPending == 0 {
		c.MaxPending = 1000
	}
	if c.MaxOutstanding == 0 {
		c.MaxOutstanding = 10
	}
	if len(c.Methods) == 0 {
		c.Methods = Methods
	}
	if len(c.Scenarios) == 0 {
		c.Scenarios = defaultScenarios
	}
}

func (c Config) Validate() error {
	var errs []error

	for name, v := range map[string]string{
		"simulation_time": c.SimulationTime,
		"deadline":        c.Deadline,
		"target_latency":  c.TargetLatency,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", name))
		}
	}

	if c.MaxPending < 0 {
		errs = append(errs, errors.New("max_pending must be >= 0"))
	}
	if c.MaxOutstanding <= 0 {
		errs = append(errs, errors.New("max_outstanding must be > 0"))
	}

	for _, m := range c.Methods {
		if !slices.Contains(Methods, m) {
			errs = append(errs, fmt.Errorf("methods: unknown method %q", m))
		}
	}

	for i, s := range c.Scenarios {
		if s.Input <= 0 || s.Output <= 0 {
			errs = append(errs, fmt.Errorf("scenarios[%d]: input and output must be > 0", i))
		}
	}

	return errors.Join(errs...)
}

// Options returns the limiter options shared by every Locker.
func (c Config) Options() codel.Options {
	target, _ := time.ParseDuration(c.TargetLatency)

	return codel.Options{
		MaxPending:     c.MaxPending,
		MaxOutstanding: c.MaxOutstanding,
		TargetLatency:  target,
	}
}

func (c Config) Durations() (runtime, deadline time.Duration) {
	runtime, _ = time.ParseDuration(c.SimulationTime)
	deadline, _ = time.ParseDuration(c.Deadline)
	return runtime, deadline
}
