package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// AddScaled returns s + k*v.
func (s State) AddScaled(v State, k float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + k*v[i]
	}
	return result
}

// Model is a dynamical system dX/dt = f(X) that exposes a named signal
// snapshot. Derive must accept any probe vector of the state dimension, not
// only the retained state, and must not mutate the model. SetState is the
// only mutation an integrator performs.
//
// len(SignalNames()) == len(Signals()) for the lifetime of a model.
type Model interface {
	Derive(x State) State
	SignalNames() []string
	State() State
	SetState(x State) error
	Signals() []float64
}

// Integrator advances a model's state by one fixed step dt.
type Integrator interface {
	Step(m Model, dt float64) error
}
