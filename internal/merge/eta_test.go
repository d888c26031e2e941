package merge

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEtaAt(t *testing.T) {
	tests := []struct {
		name string
		eta  Eta
		t    float64
		want float64
	}{
		{"constant", Constant(0.5), 0.3, 0.5},
		{"constant clamps high", Constant(1.5), 0.3, 1},
		{"linear start", Linear(0.2, 0.8), 0, 0.2},
		{"linear mid", Linear(0.2, 0.8), 0.5, 0.5},
		{"linear end", Linear(0.2, 0.8), 1, 0.8},
		{"linear t clamped", Linear(0.2, 0.8), 3, 0.8},
		{"linear negative t", Linear(0.2, 0.8), -1, 0.2},
		{"piecewise first half", PiecewiseLinear(0.5, [3]float64{0.5, 0.75, 0.85}), 0.25, 0.625},
		{"piecewise at split", PiecewiseLinear(0.5, [3]float64{0.5, 0.75, 0.85}), 0.5, 0.75},
		{"piecewise second half", PiecewiseLinear(0.5, [3]float64{0.5, 0.75, 0.85}), 0.75, 0.8},
		{"piecewise end", PiecewiseLinear(0.5, [3]float64{0.5, 0.75, 0.85}), 1, 0.85},
		{"piecewise split one", PiecewiseLinear(1, [3]float64{0, 1, 0}), 1, 1},
		{"nan progress", Linear(0.2, 0.8), math.NaN(), 0.2},
	}
	for _, tt := range tests {
		if got := tt.eta.At(tt.t); !near(got, tt.want) {
			t.Errorf("%s: At(%v) = %v; want %v", tt.name, tt.t, got, tt.want)
		}
	}
}

func TestParseEta_RoundTrip(t *testing.T) {
	for _, e := range []Eta{
		Constant(0.5),
		Linear(0.25, 0.9),
		PiecewiseLinear(0.5, [3]float64{0.75, 0.75, 0.85}),
	} {
		parsed, err := ParseEta(e.String())
		if err != nil {
			t.Fatalf("ParseEta(%q): %v", e.String(), err)
		}
		if parsed != e {
			t.Errorf("ParseEta(%q) = %+v; want %+v", e.String(), parsed, e)
		}
	}
}

func TestParseEta_Forms(t *testing.T) {
	tests := []struct {
		in   string
		want Eta
	}{
		{"0.4", Constant(0.4)},
		{" constant:1 ", Constant(1)},
		{"LINEAR:0.1, 0.2", Linear(0.1, 0.2)},
		{"piecewise:0.3:0.1,0.2,0.3", PiecewiseLinear(0.3, [3]float64{0.1, 0.2, 0.3})},
	}
	for _, tt := range tests {
		got, err := ParseEta(tt.in)
		if err != nil {
			t.Errorf("ParseEta(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEta(%q) = %+v; want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseEta_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"abc",
		"constant:",
		"linear:0.5",
		"linear:a,b",
		"piecewise:0.5",
		"piecewise:0:1,2,3",
		"piecewise:0.5:1,2",
		"cubic:1,2,3",
	} {
		if _, err := ParseEta(in); !errors.Is(err, ErrInvalidEta) {
			t.Errorf("ParseEta(%q) error = %v; want ErrInvalidEta", in, err)
		}
	}
}
