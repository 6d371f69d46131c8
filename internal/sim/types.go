package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
)

const (
	DefaultDt      = 0.01
	DefaultHorizon = 10.0

	// MaxSteps bounds the samples a single run may record.
	MaxSteps = 10_000_000
)

type Config struct {
	Horizon float64
	Dt      float64
	Scheme  integrators.Scheme
}

func DefaultConfig() Config {
	return Config{
		Horizon: DefaultHorizon,
		Dt:      DefaultDt,
		Scheme:  integrators.SchemeRK4,
	}
}

// Steps returns the number of recorded samples, round(Horizon/Dt) + 1,
// including the initial one.
func (c Config) Steps() int {
	return int(math.Round(c.Horizon/c.Dt)) + 1
}

func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.Horizon <= 0 || math.IsNaN(c.Horizon) || math.IsInf(c.Horizon, 0) {
		return fmt.Errorf("%w: horizon must be positive, got %f", dynamo.ErrInvalidConfig, c.Horizon)
	}
	if n := math.Round(c.Horizon / c.Dt); math.IsInf(n, 0) || n+1 > MaxSteps {
		return fmt.Errorf("%w: horizon/dt needs %g samples, limit is %d", dynamo.ErrInvalidConfig, n+1, MaxSteps)
	}
	if _, err := integrators.New(c.Scheme); err != nil {
		return err
	}
	return nil
}
