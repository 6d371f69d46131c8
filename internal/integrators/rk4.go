package integrators

import "github.com/san-kum/statesim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta method. Intermediate stages
// are evaluated on probe vectors; the model is only written once per step.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(m dynamo.Model, dt float64) error {
	x := m.State()
	n := len(x)

	d1 := m.Derive(x).Scale(dt)
	d2 := m.Derive(x.AddScaled(d1, 0.5)).Scale(dt)
	d3 := m.Derive(x.AddScaled(d2, 0.5)).Scale(dt)
	d4 := m.Derive(x.Add(d3)).Scale(dt)

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = x[i] + (d1[i]+2*d2[i]+2*d3[i]+d4[i])/6.0
	}

	return m.SetState(result)
}
