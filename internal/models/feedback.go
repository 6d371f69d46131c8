package models

import (
	"github.com/san-kum/statesim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// StateFeedback closes the loop u = -K (x - ref) around a StateSpace plant.
// The input is recomputed from the probe on every Derive, so intermediate
// Runge-Kutta stages see the feedback law rather than a stale input.
type StateFeedback struct {
	plant *StateSpace
	k     *mat.Dense
	ref   []float64
}

// NewStateFeedback wraps plant with the row-major gain K (m x n). A nil ref
// regulates to the origin.
func NewStateFeedback(plant *StateSpace, gain, ref []float64) (*StateFeedback, error) {
	n, m, _ := plant.Dims()
	if err := dynamo.CheckLen("K", m*n, len(gain)); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = make([]float64, n)
	}
	if err := dynamo.CheckLen("ref", n, len(ref)); err != nil {
		return nil, err
	}

	f := &StateFeedback{
		plant: plant,
		k:     mat.NewDense(m, n, append([]float64(nil), gain...)),
		ref:   append([]float64(nil), ref...),
	}
	if err := plant.SetInput(f.control(plant.x)); err != nil {
		return nil, err
	}
	return f, nil
}

// Plant returns the wrapped open-loop model.
func (f *StateFeedback) Plant() *StateSpace { return f.plant }

func (f *StateFeedback) control(x []float64) []float64 {
	n, m, _ := f.plant.Dims()
	e := mat.NewVecDense(n, nil)
	for i := range x {
		e.SetVec(i, x[i]-f.ref[i])
	}
	var u mat.VecDense
	u.MulVec(f.k, e)
	u.ScaleVec(-1, &u)
	out := make([]float64, m)
	for i := range out {
		out[i] = u.AtVec(i)
	}
	return out
}

func (f *StateFeedback) Derive(x dynamo.State) dynamo.State {
	return f.plant.derive(x, f.control(x))
}

func (f *StateFeedback) SignalNames() []string { return f.plant.SignalNames() }
func (f *StateFeedback) State() dynamo.State   { return f.plant.State() }
func (f *StateFeedback) Signals() []float64    { return f.plant.Signals() }

// SetState commits x and refreshes the plant input so the recorded u matches
// the feedback law at the new state.
func (f *StateFeedback) SetState(x dynamo.State) error {
	if err := f.plant.SetState(x); err != nil {
		return err
	}
	return f.plant.SetInput(f.control(x))
}

var _ dynamo.Model = (*StateFeedback)(nil)
