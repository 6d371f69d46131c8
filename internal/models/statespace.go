package models

import (
	"fmt"
	"strings"

	"github.com/san-kum/statesim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// StateSpace is a linear time-invariant system
//
//	x'(t) = A x(t) + B u(t)
//	y(t)  = C x(t) + D u(t)
//
// with n states, m inputs and k outputs. The input u is retained by the
// model and held constant until the next SetInput.
type StateSpace struct {
	a, b, c, d *mat.Dense
	x, u       []float64
	n, m, k    int
}

// NewStateSpace returns a model with every matrix, the state and the input
// zeroed.
func NewStateSpace(stateDim, inputDim, outputDim int) (*StateSpace, error) {
	if stateDim < 1 || inputDim < 1 || outputDim < 1 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got (%d, %d, %d)",
			dynamo.ErrDimensionMismatch, stateDim, inputDim, outputDim)
	}
	return &StateSpace{
		a: mat.NewDense(stateDim, stateDim, nil),
		b: mat.NewDense(stateDim, inputDim, nil),
		c: mat.NewDense(outputDim, stateDim, nil),
		d: mat.NewDense(outputDim, inputDim, nil),
		x: make([]float64, stateDim),
		u: make([]float64, inputDim),
		n: stateDim,
		m: inputDim,
		k: outputDim,
	}, nil
}

// Dims returns the state, input and output dimensions.
func (s *StateSpace) Dims() (n, m, k int) {
	return s.n, s.m, s.k
}

func (s *StateSpace) SetA(vals []float64) error { return setDense("A", s.a, vals) }
func (s *StateSpace) SetB(vals []float64) error { return setDense("B", s.b, vals) }
func (s *StateSpace) SetC(vals []float64) error { return setDense("C", s.c, vals) }
func (s *StateSpace) SetD(vals []float64) error { return setDense("D", s.d, vals) }

// SetInitialState sets x(0). It validates exactly like SetState.
func (s *StateSpace) SetInitialState(x []float64) error {
	return s.SetState(x)
}

// SetInput replaces the retained input vector u.
func (s *StateSpace) SetInput(u []float64) error {
	if err := dynamo.CheckLen("u", s.m, len(u)); err != nil {
		return err
	}
	copy(s.u, u)
	return nil
}

// Input returns a copy of the retained input vector.
func (s *StateSpace) Input() []float64 {
	return append([]float64(nil), s.u...)
}

func (s *StateSpace) A() mat.Matrix { return mat.DenseCopyOf(s.a) }
func (s *StateSpace) B() mat.Matrix { return mat.DenseCopyOf(s.b) }
func (s *StateSpace) C() mat.Matrix { return mat.DenseCopyOf(s.c) }
func (s *StateSpace) D() mat.Matrix { return mat.DenseCopyOf(s.d) }

// Observation returns y = C x + D u for the current state and input.
func (s *StateSpace) Observation() []float64 {
	var y, du mat.VecDense
	y.MulVec(s.c, mat.NewVecDense(s.n, s.x))
	du.MulVec(s.d, mat.NewVecDense(s.m, s.u))
	y.AddVec(&y, &du)
	return mat.Col(nil, 0, &y)
}

// Derive returns A x + B u for the probe x and the retained input u.
func (s *StateSpace) Derive(x dynamo.State) dynamo.State {
	return s.derive(x, s.u)
}

func (s *StateSpace) derive(x, u []float64) dynamo.State {
	var dx, bu mat.VecDense
	dx.MulVec(s.a, mat.NewVecDense(s.n, x))
	bu.MulVec(s.b, mat.NewVecDense(s.m, u))
	dx.AddVec(&dx, &bu)
	return dynamo.State(mat.Col(nil, 0, &dx))
}

func (s *StateSpace) State() dynamo.State {
	return dynamo.State(s.x).Clone()
}

func (s *StateSpace) SetState(x dynamo.State) error {
	if err := dynamo.CheckLen("x", s.n, len(x)); err != nil {
		return err
	}
	copy(s.x, x)
	return nil
}

// SignalNames returns u_0..u_{m-1}, x_0..x_{n-1}, y_0..y_{k-1}, matching the
// order of Signals.
func (s *StateSpace) SignalNames() []string {
	names := make([]string, 0, s.m+s.n+s.k)
	for i := 0; i < s.m; i++ {
		names = append(names, fmt.Sprintf("u_%d", i))
	}
	for i := 0; i < s.n; i++ {
		names = append(names, fmt.Sprintf("x_%d", i))
	}
	for i := 0; i < s.k; i++ {
		names = append(names, fmt.Sprintf("y_%d", i))
	}
	return names
}

// Signals returns u ++ x ++ y.
func (s *StateSpace) Signals() []float64 {
	out := make([]float64, 0, s.m+s.n+s.k)
	out = append(out, s.u...)
	out = append(out, s.x...)
	return append(out, s.Observation()...)
}

func (s *StateSpace) String() string {
	var sb strings.Builder
	writeMatrix(&sb, "A", s.a)
	sb.WriteString("\n")
	writeMatrix(&sb, "B", s.b)
	sb.WriteString("\n")
	writeMatrix(&sb, "C", s.c)
	sb.WriteString("\n")
	writeMatrix(&sb, "D", s.d)
	return sb.String()
}

func writeMatrix(sb *strings.Builder, name string, m *mat.Dense) {
	r, c := m.Dims()
	fmt.Fprintf(sb, "Matrix %s (%d x %d):\n", name, r, c)
	for i := 0; i < r; i++ {
		sb.WriteString("|")
		for j := 0; j < c; j++ {
			fmt.Fprintf(sb, "%15.5f ", m.At(i, j))
		}
		sb.WriteString("|\n")
	}
}

// setDense copies a row-major array into dst. dst is left untouched on error.
func setDense(field string, dst *mat.Dense, vals []float64) error {
	r, c := dst.Dims()
	if err := dynamo.CheckLen(field, r*c, len(vals)); err != nil {
		return err
	}
	for i, v := range vals {
		dst.Set(i/c, i%c, v)
	}
	return nil
}

var _ dynamo.Model = (*StateSpace)(nil)
