package metrics

import "math"

// ControlEffort is the mean over samples of the summed absolute inputs.
type ControlEffort struct {
	name    string
	inputs  []int
	sum     float64
	samples int
}

func NewControlEffort(inputs []int) *ControlEffort {
	return &ControlEffort{
		name:   "control_effort",
		inputs: inputs,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(t float64, signals []float64) {
	for _, i := range c.inputs {
		c.sum += math.Abs(signals[i])
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
