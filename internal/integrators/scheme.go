package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/statesim/internal/dynamo"
)

// Scheme selects the integration method for a run.
type Scheme string

const (
	SchemeEuler Scheme = "euler"
	SchemeRK4   Scheme = "rk4"
)

var registry = map[Scheme]func() dynamo.Integrator{
	SchemeEuler: func() dynamo.Integrator { return NewEuler() },
	SchemeRK4:   func() dynamo.Integrator { return NewRK4() },
}

// Schemes lists the supported schemes in a stable order.
func Schemes() []Scheme {
	return []Scheme{SchemeEuler, SchemeRK4}
}

// ParseScheme accepts "euler", "rk4" and the long form "runge_kutta".
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euler":
		return SchemeEuler, nil
	case "rk4", "runge_kutta", "rungekutta":
		return SchemeRK4, nil
	}
	return "", fmt.Errorf("%w: %q", dynamo.ErrUnknownScheme, name)
}

// New returns the integrator for s.
func New(s Scheme) (dynamo.Integrator, error) {
	fn, ok := registry[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownScheme, string(s))
	}
	return fn(), nil
}
