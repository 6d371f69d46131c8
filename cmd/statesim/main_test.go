package main

import (
	"testing"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareTargets(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		fromConfig bool
		scenario   []string
		schemes    []integrators.Scheme
	}{
		{"preset only", []string{"decay"}, false, []string{"decay"}, integrators.Schemes()},
		{"preset and solvers", []string{"decay", "rk4"}, false, []string{"decay"}, []integrators.Scheme{integrators.SchemeRK4}},
		{"config only", nil, true, nil, integrators.Schemes()},
		{"config and solvers", []string{"euler", "rk4"}, true, nil, []integrators.Scheme{integrators.SchemeEuler, integrators.SchemeRK4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, schemes, err := compareTargets(tt.args, tt.fromConfig)
			require.NoError(t, err)
			assert.Equal(t, tt.scenario, scenario)
			assert.Equal(t, tt.schemes, schemes)
		})
	}
}

func TestCompareTargetsErrors(t *testing.T) {
	_, _, err := compareTargets(nil, false)
	assert.Error(t, err)

	_, _, err = compareTargets([]string{"euler", "rk45"}, true)
	assert.ErrorIs(t, err, dynamo.ErrUnknownScheme)
}
