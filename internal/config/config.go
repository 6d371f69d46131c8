package config

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"slices"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt      = 0.01
	DefaultHorizon = 10.0
	DefaultSolver  = "rk4"
)

// Model kinds understood by the experiment builder.
const (
	KindTransferFunction = "transfer_function"
	KindStateSpace       = "state_space"
	KindRLC              = "rlc"
)

// Config is one simulation scenario.
type Config struct {
	Name    string      `yaml:"name"`
	Horizon float64     `yaml:"horizon"`
	Dt      float64     `yaml:"dt"`
	Solver  string      `yaml:"solver"`
	Model   ModelConfig `yaml:"model"`
}

// ModelConfig describes the plant. Which fields are read depends on Kind.
// Matrices are row-major.
type ModelConfig struct {
	Kind string `yaml:"kind"`

	Num []float64 `yaml:"num,omitempty"`
	Den []float64 `yaml:"den,omitempty"`

	StateDim  int       `yaml:"state_dim,omitempty"`
	InputDim  int       `yaml:"input_dim,omitempty"`
	OutputDim int       `yaml:"output_dim,omitempty"`
	A         []float64 `yaml:"a,omitempty"`
	B         []float64 `yaml:"b,omitempty"`
	C         []float64 `yaml:"c,omitempty"`
	D         []float64 `yaml:"d,omitempty"`

	R      float64 `yaml:"r,omitempty"`
	L      float64 `yaml:"l,omitempty"`
	CFarad float64 `yaml:"c_farad,omitempty"`

	InitialState []float64 `yaml:"initial_state,omitempty"`
	Input        []float64 `yaml:"input,omitempty"`
	FeedbackGain []float64 `yaml:"feedback_gain,omitempty"`
	Reference    []float64 `yaml:"reference,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:    "decay",
		Horizon: DefaultHorizon,
		Dt:      DefaultDt,
		Solver:  DefaultSolver,
		Model: ModelConfig{
			Kind:         KindTransferFunction,
			Num:          []float64{1},
			Den:          []float64{1, 1},
			InitialState: []float64{1},
		},
	}
}

// Load reads a YAML scenario. Fields missing from the file keep their
// DefaultConfig values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dynamo.IOError{Op: "read", Path: path, Err: err}
	}
	cfg := DefaultConfig()
	// Model fields are replaced wholesale, not merged with the default plant.
	cfg.Model = ModelConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	if reflect.ValueOf(cfg.Model).IsZero() {
		cfg.Model = DefaultConfig().Model
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &dynamo.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Validate checks the scenario fields that do not need a built model.
// Matrix shapes, polynomial orders and unregistered kinds are reported when
// the model is built.
func (c *Config) Validate() error {
	if !positive(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	}
	if !positive(c.Horizon) {
		return fmt.Errorf("%w: horizon must be positive, got %g", dynamo.ErrInvalidConfig, c.Horizon)
	}
	if _, err := integrators.ParseScheme(c.Solver); err != nil {
		return err
	}

	m := c.Model
	switch m.Kind {
	case KindTransferFunction:
		if len(m.Den) == 0 || len(m.Num) == 0 {
			return fmt.Errorf("%w: transfer function needs num and den", dynamo.ErrInvalidConfig)
		}
	case KindStateSpace:
		if m.StateDim < 1 || m.InputDim < 1 || m.OutputDim < 1 {
			return fmt.Errorf("%w: state space needs positive dimensions, got n=%d m=%d k=%d",
				dynamo.ErrInvalidConfig, m.StateDim, m.InputDim, m.OutputDim)
		}
	case KindRLC:
		if m.L <= 0 || m.CFarad <= 0 || m.R < 0 {
			return fmt.Errorf("%w: rlc needs r >= 0, l > 0, c_farad > 0", dynamo.ErrInvalidConfig)
		}
	case "":
		return fmt.Errorf("%w: model kind is required", dynamo.ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	m := &out.Model
	m.Num = slices.Clone(m.Num)
	m.Den = slices.Clone(m.Den)
	m.A = slices.Clone(m.A)
	m.B = slices.Clone(m.B)
	m.C = slices.Clone(m.C)
	m.D = slices.Clone(m.D)
	m.InitialState = slices.Clone(m.InitialState)
	m.Input = slices.Clone(m.Input)
	m.FeedbackGain = slices.Clone(m.FeedbackGain)
	m.Reference = slices.Clone(m.Reference)
	return &out
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
