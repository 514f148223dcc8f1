package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigOverridesBase(t *testing.T) {
	path := writeConfig(t, `
simulation_time: 200ms
methods: [bounded, weighted]
scenarios:
  - {input: 100, output: 50}
`)

	cfg, err := LoadConfig(path, Config{MaxOutstanding: 3})
	require.NoError(t, err)

	require.Equal(t, "200ms", cfg.SimulationTime)
	require.Equal(t, "1s", cfg.Deadline)
	require.Equal(t, 3, cfg.MaxOutstanding)
	require.Equal(t, 1000, cfg.MaxPending)
	require.Equal(t, []string{"bounded", "weighted"}, cfg.Methods)
	require.Equal(t, []Scenario{{Input: 100, Output: 50}}, cfg.Scenarios)

	runtime, deadline := cfg.Durations()
	require.Equal(t, 200*time.Millisecond, runtime)
	require.Equal(t, time.Second, deadline)

	opts := cfg.Options()
	require.Equal(t, 5*time.Millisecond, opts.TargetLatency)
	require.Equal(t, 3, opts.MaxOutstanding)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"), Config{})
	require.NoError(t, err)

	require.Equal(t, Methods, cfg.Methods)
	require.Equal(t, defaultScenarios, cfg.Scenarios)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad duration", "deadline: soon\n"},
		{"negative duration", "simulation_time: -1s\n"},
		{"unknown method", "methods: [fifo]\n"},
		{"bad scenario", "scenarios:\n  - {input: 0, output: 10}\n"},
		{"negative outstanding", "max_outstanding: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), Config{})
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), Config{})
	require.Error(t, err)
}
