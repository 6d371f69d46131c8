package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/statesim/internal/series"
)

func TestControlEffort(t *testing.T) {
	m := NewControlEffort([]int{0, 1})

	m.Observe(0, []float64{1, -1, 100})
	m.Observe(0.1, []float64{-3, 0, 100})
	if got := m.Value(); got != 2.5 {
		t.Errorf("expected mean effort 2.5, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestPeakAndFinalNorm(t *testing.T) {
	p := NewPeak("y_0", 1)
	f := NewFinalNorm([]int{0, 1})

	for _, row := range [][]float64{{0, 1}, {3, -4}, {0.6, 0.8}} {
		p.Observe(0, row)
		f.Observe(0, row)
	}
	if p.Value() != 4 {
		t.Errorf("expected peak 4, got %f", p.Value())
	}
	if math.Abs(f.Value()-1) > 1e-12 {
		t.Errorf("expected final norm 1, got %f", f.Value())
	}
	if p.Name() != "peak_y_0" {
		t.Errorf("unexpected name %s", p.Name())
	}
}

func TestDefaults(t *testing.T) {
	ms := Defaults([]string{"u_0", "x_0", "x_1", "y_0", "y_1"})
	want := []string{"control_effort", "peak_y_0", "peak_y_1", "final_state_norm"}
	if len(ms) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(ms))
	}
	for i, m := range ms {
		if m.Name() != want[i] {
			t.Errorf("metric %d: expected %s, got %s", i, want[i], m.Name())
		}
	}
}

func TestEvaluate(t *testing.T) {
	st, err := series.New(series.TimeKey, "u_0", "x_0", "y_0")
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{
		{0, 1, 2, -5},
		{0.1, 1, -1, 3},
	}
	for _, r := range rows {
		if err := st.AppendRow(r); err != nil {
			t.Fatal(err)
		}
	}

	ms := Defaults([]string{"u_0", "x_0", "y_0"})
	values := Evaluate(st, ms)
	if values["control_effort"] != 1 {
		t.Errorf("expected effort 1, got %f", values["control_effort"])
	}
	if values["peak_y_0"] != 5 {
		t.Errorf("expected peak 5, got %f", values["peak_y_0"])
	}
	if values["final_state_norm"] != 1 {
		t.Errorf("expected final norm 1, got %f", values["final_state_norm"])
	}

	again := Evaluate(st, ms)
	if again["control_effort"] != 1 {
		t.Error("Evaluate should reset metrics before observing")
	}

	names := SortedNames(values)
	if names[0] != "control_effort" || names[2] != "peak_y_0" {
		t.Errorf("unexpected order %v", names)
	}
}
