package models

import (
	"fmt"

	"github.com/san-kum/statesim/internal/dynamo"
)

// FromTransferFunction realises
//
//	G(s) = (num[0] s^p + ... + num[p]) / (den[0] s^n + ... + den[n])
//
// as a single-input single-output StateSpace in canonical form: the states
// form a shift register, all denominator dynamics sit in the last column of
// A and the output is the last state. Coefficients are highest degree first.
func FromTransferFunction(num, den []float64) (*StateSpace, error) {
	n := len(den) - 1
	if n < 1 {
		return nil, fmt.Errorf("%w: denominator degree %d", dynamo.ErrInvalidOrder, n)
	}
	if len(num) > len(den) {
		return nil, fmt.Errorf("%w: numerator degree %d exceeds denominator degree %d",
			dynamo.ErrImproperTransferFunction, len(num)-1, n)
	}
	if len(num) == 0 {
		return nil, fmt.Errorf("%w: empty numerator", dynamo.ErrInvalidOrder)
	}
	an := den[0]
	if an == 0 {
		return nil, fmt.Errorf("%w: leading denominator coefficient is zero", dynamo.ErrInvalidOrder)
	}

	model, err := NewStateSpace(n, 1, 1)
	if err != nil {
		return nil, err
	}

	a := make([]float64, n*n)
	for r := 0; r < n; r++ {
		a[r*n+n-1] = -den[n-r] / an
		if r > 0 {
			a[r*n+r-1] = 1
		}
	}
	if err := model.SetA(a); err != nil {
		return nil, err
	}

	// Direct feed-through, zero for strictly proper systems.
	bn := 0.0
	if len(num)-1 == n {
		bn = num[0] / an
	}

	b := make([]float64, n)
	for r := 0; r < n; r++ {
		if r < len(num) {
			b[r] = (num[len(num)-r-1] - den[n-r]*bn) / an
		} else {
			b[r] = -den[n-r] * bn / an
		}
	}
	if err := model.SetB(b); err != nil {
		return nil, err
	}

	c := make([]float64, n)
	c[n-1] = 1
	if err := model.SetC(c); err != nil {
		return nil, err
	}

	if err := model.SetD([]float64{bn}); err != nil {
		return nil, err
	}

	return model, nil
}
