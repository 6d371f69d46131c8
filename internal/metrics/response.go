package metrics

import (
	"math"

	"github.com/san-kum/statesim/internal/dynamo"
)

// Peak tracks the largest magnitude one signal reaches. NaN samples are
// ignored.
type Peak struct {
	name  string
	index int
	peak  float64
}

func NewPeak(signal string, index int) *Peak {
	return &Peak{name: "peak_" + signal, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(t float64, signals []float64) {
	if v := math.Abs(signals[p.index]); v > p.peak {
		p.peak = v
	}
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }

// FinalNorm is the Euclidean norm of the state at the last observed sample.
type FinalNorm struct {
	states []int
	norm   float64
}

func NewFinalNorm(states []int) *FinalNorm {
	return &FinalNorm{states: states}
}

func (f *FinalNorm) Name() string { return "final_state_norm" }

func (f *FinalNorm) Observe(t float64, signals []float64) {
	x := make(dynamo.State, len(f.states))
	for k, i := range f.states {
		x[k] = signals[i]
	}
	f.norm = x.Norm()
}

func (f *FinalNorm) Value() float64 { return f.norm }
func (f *FinalNorm) Reset()         { f.norm = 0 }
