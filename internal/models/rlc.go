package models

import (
	"fmt"

	"github.com/san-kum/statesim/internal/dynamo"
)

// NewSeriesRLC models a voltage source driving a series resistor, inductor
// and capacitor. States are the loop current and the capacitor charge; the
// single output is the capacitor voltage.
//
//	L di/dt = u - R i - q/C
//	dq/dt   = i
func NewSeriesRLC(r, l, c float64) (*StateSpace, error) {
	if l <= 0 || c <= 0 || r < 0 {
		return nil, fmt.Errorf("%w: rlc needs r >= 0, l > 0, c > 0 (got r=%g l=%g c=%g)",
			dynamo.ErrInvalidConfig, r, l, c)
	}

	model, err := NewStateSpace(2, 1, 1)
	if err != nil {
		return nil, err
	}
	if err := model.SetA([]float64{
		-r / l, -1 / (l * c),
		1, 0,
	}); err != nil {
		return nil, err
	}
	if err := model.SetB([]float64{1 / l, 0}); err != nil {
		return nil, err
	}
	if err := model.SetC([]float64{0, 1 / c}); err != nil {
		return nil, err
	}
	return model, nil
}
