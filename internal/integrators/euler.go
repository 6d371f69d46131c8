package integrators

import "github.com/san-kum/statesim/internal/dynamo"

// Euler is the explicit first-order method x' = x + dt f(x).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(m dynamo.Model, dt float64) error {
	x := m.State()
	dx := m.Derive(x)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return m.SetState(result)
}
