package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/statesim/internal/config"
	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
	"github.com/san-kum/statesim/internal/sim"
)

// Experiment is one scenario bound to a built model and simulator.
type Experiment struct {
	cfg       *config.Config
	model     dynamo.Model
	simulator *sim.Simulator
}

// New validates cfg, builds its model through the default registry and
// prepares a simulator seeded at t=0.
func New(cfg *config.Config, opts ...sim.Option) (*Experiment, error) {
	return NewRegistry().NewExperiment(cfg, opts...)
}

func (r *Registry) NewExperiment(cfg *config.Config, opts ...sim.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	simCfg, err := SimConfig(cfg)
	if err != nil {
		return nil, err
	}

	model, err := r.Build(cfg.Model)
	if err != nil {
		return nil, err
	}

	s, err := sim.New(simCfg, model, opts...)
	if err != nil {
		return nil, err
	}

	return &Experiment{cfg: cfg, model: model, simulator: s}, nil
}

// SimConfig maps the scenario's run settings onto the driver config.
func SimConfig(cfg *config.Config) (sim.Config, error) {
	scheme, err := integrators.ParseScheme(cfg.Solver)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{Horizon: cfg.Horizon, Dt: cfg.Dt, Scheme: scheme}, nil
}

func (e *Experiment) Run(ctx context.Context) error {
	if e.simulator == nil {
		return fmt.Errorf("experiment not set up")
	}
	return e.simulator.Run(ctx)
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Model() dynamo.Model    { return e.model }

// Simulator returns the underlying simulator for stepping or export.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}
