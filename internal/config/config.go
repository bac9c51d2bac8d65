package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt      = 0.1
	DefaultSteps   = 100
	DefaultSamples = 200
)

// Config describes a simulation or dataset-generation scenario.
type Config struct {
	Model string  `yaml:"model"`
	Dt    float64 `yaml:"dt"`
	Steps int     `yaml:"steps"`
	Seed  uint64  `yaml:"seed"`
	Noise bool    `yaml:"noise"`

	// ClipNegative overrides the model's default when set.
	ClipNegative *bool `yaml:"clip_negative,omitempty"`

	AbsTol float64 `yaml:"abstol,omitempty"`
	RelTol float64 `yaml:"reltol,omitempty"`

	InitState []float64 `yaml:"init_state,omitempty"`

	Input   InputConfig   `yaml:"input"`
	Dataset DatasetConfig `yaml:"dataset"`
	Output  OutputConfig  `yaml:"output"`
}

// InputConfig selects the input sequence applied over the horizon. Constant
// holds one input vector repeated every step.
type InputConfig struct {
	Constant []float64 `yaml:"constant,omitempty"`
}

// DatasetConfig parameterizes training-data generation. Empty bound slices
// fall back to the registered model defaults.
type DatasetConfig struct {
	Samples    int       `yaml:"samples"`
	InputLower []float64 `yaml:"input_lower,omitempty"`
	InputUpper []float64 `yaml:"input_upper,omitempty"`
	StateLower []float64 `yaml:"state_lower,omitempty"`
	StateUpper []float64 `yaml:"state_upper,omitempty"`
	ParamLower []float64 `yaml:"param_lower,omitempty"`
	ParamUpper []float64 `yaml:"param_upper,omitempty"`
}

type OutputConfig struct {
	Trace   string `yaml:"trace,omitempty"`
	Dataset string `yaml:"dataset,omitempty"`
}

func Default() *Config {
	return &Config{
		Model: "pendulum",
		Dt:    DefaultDt,
		Steps: DefaultSteps,
		Dataset: DatasetConfig{
			Samples: DefaultSamples,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("config: model name is required")
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	if c.Dataset.Samples < 0 {
		return fmt.Errorf("config: dataset samples must not be negative, got %d", c.Dataset.Samples)
	}
	return nil
}
