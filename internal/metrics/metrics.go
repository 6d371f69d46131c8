// Package metrics reduces a recorded run to scalar summaries.
package metrics

import (
	"sort"
	"strings"

	"github.com/san-kum/statesim/internal/series"
)

// Metric accumulates one summary over the samples of a run. Observe gets
// the sample time and the signal values without the time column.
type Metric interface {
	Name() string
	Observe(t float64, signals []float64)
	Value() float64
	Reset()
}

// Defaults picks the summaries that apply to a model's signal names: the
// mean control effort over all inputs, the peak magnitude of every output
// and the final state norm.
func Defaults(names []string) []Metric {
	var inputs, states []int
	var out []Metric
	for i, name := range names {
		switch {
		case strings.HasPrefix(name, "u_"):
			inputs = append(inputs, i)
		case strings.HasPrefix(name, "x_"):
			states = append(states, i)
		case strings.HasPrefix(name, "y_"):
			out = append(out, NewPeak(name, i))
		}
	}
	if len(inputs) > 0 {
		out = append([]Metric{NewControlEffort(inputs)}, out...)
	}
	if len(states) > 0 {
		out = append(out, NewFinalNorm(states))
	}
	return out
}

// Evaluate feeds every row of st through ms and returns the values by name.
func Evaluate(st *series.Store, ms []Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i := 0; i < st.Len(); i++ {
		row := st.Row(i)
		for _, m := range ms {
			m.Observe(row[0], row[1:])
		}
	}

	values := make(map[string]float64, len(ms))
	for _, m := range ms {
		values[m.Name()] = m.Value()
	}
	return values
}

// SortedNames returns the keys of values in order.
func SortedNames(values map[string]float64) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
