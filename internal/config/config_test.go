package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pendulum", cfg.Model)
	assert.Equal(t, DefaultDt, cfg.Dt)
	assert.Equal(t, DefaultSteps, cfg.Steps)
	assert.Equal(t, DefaultSamples, cfg.Dataset.Samples)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")

	clip := true
	cfg := Default()
	cfg.Model = "fourtank"
	cfg.Dt = 0.05
	cfg.Steps = 250
	cfg.Seed = 42
	cfg.Noise = true
	cfg.ClipNegative = &clip
	cfg.InitState = []float64{12, 12, 5, 5}
	cfg.Input.Constant = []float64{3, 3}
	cfg.Dataset.Samples = 500
	cfg.Dataset.StateLower = []float64{1, 1, 1, 1}
	cfg.Dataset.StateUpper = []float64{20, 20, 20, 20}
	cfg.Output.Trace = "trace.csv"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: pendulum\ndt: 0.2\nsteps: 10\n"), 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultSamples, loaded.Dataset.Samples)
	assert.Equal(t, 0.2, loaded.Dt)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -1 }},
		{"zero steps", func(c *Config) { c.Steps = 0 }},
		{"negative samples", func(c *Config) { c.Dataset.Samples = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
