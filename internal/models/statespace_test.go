package models

import (
	"testing"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewStateSpaceZeroed(t *testing.T) {
	m, err := NewStateSpace(2, 1, 3)
	require.NoError(t, err)

	n, in, out := m.Dims()
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, in)
	assert.Equal(t, 3, out)

	assert.True(t, mat.Equal(m.A(), mat.NewDense(2, 2, nil)))
	assert.True(t, mat.Equal(m.D(), mat.NewDense(3, 1, nil)))
	assert.Equal(t, dynamo.State{0, 0}, m.State())
	assert.Equal(t, []float64{0}, m.Input())
}

func TestNewStateSpaceRejectsEmptyDims(t *testing.T) {
	_, err := NewStateSpace(0, 1, 1)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestSettersRejectWrongLength(t *testing.T) {
	m, err := NewStateSpace(2, 1, 1)
	require.NoError(t, err)

	require.NoError(t, m.SetA([]float64{1, 2, 3, 4}))
	require.NoError(t, m.SetB([]float64{5, 6}))
	require.NoError(t, m.SetC([]float64{7, 8}))
	require.NoError(t, m.SetD([]float64{9}))
	require.NoError(t, m.SetInitialState([]float64{1, -1}))
	require.NoError(t, m.SetInput([]float64{2}))

	tests := []struct {
		field string
		set   func([]float64) error
		want  int
		got   []float64
		read  func() any
	}{
		{"A", m.SetA, 4, []float64{1, 2, 3}, func() any { return m.A() }},
		{"B", m.SetB, 2, []float64{1, 2, 3}, func() any { return m.B() }},
		{"C", m.SetC, 2, []float64{1}, func() any { return m.C() }},
		{"D", m.SetD, 1, []float64{}, func() any { return m.D() }},
		{"x", m.SetInitialState, 2, []float64{1, 2, 3}, func() any { return m.State() }},
		{"u", m.SetInput, 1, []float64{1, 2}, func() any { return m.Input() }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			before := tt.read()

			err := tt.set(tt.got)
			require.Error(t, err)
			assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

			var dimErr *dynamo.DimensionError
			require.ErrorAs(t, err, &dimErr)
			assert.Equal(t, tt.field, dimErr.Field)
			assert.Equal(t, tt.want, dimErr.Want)
			assert.Equal(t, len(tt.got), dimErr.Got)

			assert.Equal(t, before, tt.read(), "value changed after rejected set")
		})
	}
}

func TestSetStateValidates(t *testing.T) {
	m, err := NewStateSpace(3, 1, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, m.SetState(dynamo.State{1}), dynamo.ErrDimensionMismatch)
	require.NoError(t, m.SetState(dynamo.State{1, 2, 3}))
	assert.Equal(t, dynamo.State{1, 2, 3}, m.State())
}

func TestStateIsCopied(t *testing.T) {
	m, err := NewStateSpace(2, 1, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetState(dynamo.State{1, 2}))

	x := m.State()
	x[0] = 42
	assert.Equal(t, dynamo.State{1, 2}, m.State())
}

func TestDeriveUsesProbeAndRetainedInput(t *testing.T) {
	m, err := NewStateSpace(2, 1, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetA([]float64{0, 1, -2, -3}))
	require.NoError(t, m.SetB([]float64{0, 1}))
	require.NoError(t, m.SetInput([]float64{4}))
	require.NoError(t, m.SetState(dynamo.State{100, 100}))

	dx := m.Derive(dynamo.State{1, 2})
	assert.InDeltaSlice(t, []float64{2, -2 - 6 + 4}, []float64(dx), 1e-12)

	// The retained state is not touched by a probe evaluation.
	assert.Equal(t, dynamo.State{100, 100}, m.State())
}

func TestObservationIncludesFeedThrough(t *testing.T) {
	m, err := NewStateSpace(2, 1, 2)
	require.NoError(t, err)
	require.NoError(t, m.SetC([]float64{1, 0, 0, 2}))
	require.NoError(t, m.SetD([]float64{0.5, 0}))
	require.NoError(t, m.SetState(dynamo.State{3, 4}))
	require.NoError(t, m.SetInput([]float64{2}))

	assert.InDeltaSlice(t, []float64{4, 8}, m.Observation(), 1e-12)
	assert.Equal(t, dynamo.State{3, 4}, m.State())
}

func TestSignalsOrderMatchesNames(t *testing.T) {
	m, err := NewStateSpace(2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, m.SetC([]float64{1, 1}))
	require.NoError(t, m.SetState(dynamo.State{3, 4}))
	require.NoError(t, m.SetInput([]float64{1, 2}))

	names := m.SignalNames()
	assert.Equal(t, []string{"u_0", "u_1", "x_0", "x_1", "y_0"}, names)

	signals := m.Signals()
	require.Len(t, signals, len(names))
	assert.Equal(t, []float64{1, 2, 3, 4, 7}, signals)
}

func TestStringRendersAllMatrices(t *testing.T) {
	m, err := NewStateSpace(2, 1, 1)
	require.NoError(t, err)

	out := m.String()
	assert.Contains(t, out, "Matrix A (2 x 2):")
	assert.Contains(t, out, "Matrix B (2 x 1):")
	assert.Contains(t, out, "Matrix C (1 x 2):")
	assert.Contains(t, out, "Matrix D (1 x 1):")
}
