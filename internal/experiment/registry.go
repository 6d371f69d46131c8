package experiment

import (
	"fmt"
	"slices"

	"github.com/san-kum/statesim/internal/config"
	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/models"
)

// PlantBuilder constructs the open-loop plant for one model kind.
type PlantBuilder func(mc config.ModelConfig) (*models.StateSpace, error)

type Registry struct {
	plants map[string]PlantBuilder
}

func NewRegistry() *Registry {
	r := &Registry{plants: make(map[string]PlantBuilder)}

	r.plants[config.KindTransferFunction] = func(mc config.ModelConfig) (*models.StateSpace, error) {
		return models.FromTransferFunction(mc.Num, mc.Den)
	}
	r.plants[config.KindStateSpace] = buildStateSpace
	r.plants[config.KindRLC] = func(mc config.ModelConfig) (*models.StateSpace, error) {
		return models.NewSeriesRLC(mc.R, mc.L, mc.CFarad)
	}

	return r
}

// Register adds or replaces the builder for kind.
func (r *Registry) Register(kind string, b PlantBuilder) {
	r.plants[kind] = b
}

// Build returns the configured model: the plant with its initial state and
// input applied, wrapped in state feedback when a gain is given.
func (r *Registry) Build(mc config.ModelConfig) (dynamo.Model, error) {
	fn, ok := r.plants[mc.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model kind %q", dynamo.ErrInvalidConfig, mc.Kind)
	}
	plant, err := fn(mc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", mc.Kind, err)
	}

	if mc.InitialState != nil {
		if err := plant.SetInitialState(mc.InitialState); err != nil {
			return nil, err
		}
	}

	if mc.FeedbackGain == nil {
		if mc.Input != nil {
			if err := plant.SetInput(mc.Input); err != nil {
				return nil, err
			}
		}
		return plant, nil
	}

	if mc.Input != nil {
		return nil, fmt.Errorf("%w: input and feedback_gain are mutually exclusive", dynamo.ErrInvalidConfig)
	}
	return models.NewStateFeedback(plant, mc.FeedbackGain, mc.Reference)
}

// ListKinds returns the registered model kinds in sorted order.
func (r *Registry) ListKinds() []string {
	kinds := make([]string, 0, len(r.plants))
	for kind := range r.plants {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// buildStateSpace leaves omitted matrices zero.
func buildStateSpace(mc config.ModelConfig) (*models.StateSpace, error) {
	m, err := models.NewStateSpace(mc.StateDim, mc.InputDim, mc.OutputDim)
	if err != nil {
		return nil, err
	}
	setters := []struct {
		vals []float64
		set  func([]float64) error
	}{
		{mc.A, m.SetA},
		{mc.B, m.SetB},
		{mc.C, m.SetC},
		{mc.D, m.SetD},
	}
	for _, s := range setters {
		if s.vals == nil {
			continue
		}
		if err := s.set(s.vals); err != nil {
			return nil, err
		}
	}
	return m, nil
}
