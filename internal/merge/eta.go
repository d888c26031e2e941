package merge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidEta is returned when an eta description cannot be parsed.
var ErrInvalidEta = errors.New("invalid eta scheduler")

// EtaKind selects the shape of an Eta scheduler.
type EtaKind int

const (
	EtaConstant EtaKind = iota
	EtaLinear
	EtaPiecewiseLinear
)

// Eta maps training progress t in [0,1] to the fraction of the top pair
// count a candidate needs in order to be merged in the same round. Low
// values batch many merges per round, a value of 1 merges only the pairs
// tied for the top count.
type Eta struct {
	Kind   EtaKind
	Split  float64    // piecewise only
	Values [3]float64 // constant uses [0], linear [0..1], piecewise [0..2]
}

// Constant returns a scheduler that always yields v.
func Constant(v float64) Eta { return Eta{Kind: EtaConstant, Values: [3]float64{v}} }

// Linear ramps from start at t=0 to end at t=1.
func Linear(start, end float64) Eta {
	return Eta{Kind: EtaLinear, Values: [3]float64{start, end}}
}

// PiecewiseLinear ramps from v[0] to v[1] over [0, split] and from v[1] to
// v[2] over [split, 1].
func PiecewiseLinear(split float64, v [3]float64) Eta {
	return Eta{Kind: EtaPiecewiseLinear, Split: split, Values: v}
}

// At evaluates the scheduler. t and the result are clamped into [0,1].
func (e Eta) At(t float64) float64 {
	t = clamp01(t)
	v := e.Values
	var out float64
	switch e.Kind {
	case EtaLinear:
		out = lerp(v[0], v[1], t)
	case EtaPiecewiseLinear:
		switch {
		case t < e.Split:
			out = lerp(v[0], v[1], t/e.Split)
		case e.Split >= 1:
			out = v[1]
		default:
			out = lerp(v[1], v[2], (t-e.Split)/(1-e.Split))
		}
	default:
		out = v[0]
	}
	return clamp01(out)
}

// String renders e in the form accepted by ParseEta.
func (e Eta) String() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	switch e.Kind {
	case EtaLinear:
		return "linear:" + f(e.Values[0]) + "," + f(e.Values[1])
	case EtaPiecewiseLinear:
		return "piecewise:" + f(e.Split) + ":" + f(e.Values[0]) + "," + f(e.Values[1]) + "," + f(e.Values[2])
	default:
		return "constant:" + f(e.Values[0])
	}
}

// ParseEta parses one of
//
//	constant:<v>            (a bare number is accepted too)
//	linear:<start>,<end>
//	piecewise:<split>:<v0>,<v1>,<v2>
func ParseEta(s string) (Eta, error) {
	s = strings.TrimSpace(s)
	kind, rest, found := strings.Cut(s, ":")
	if !found {
		kind, rest = "constant", s
	}

	switch strings.ToLower(kind) {
	case "constant":
		v, err := parseFloats(rest, 1)
		if err != nil {
			return Eta{}, fmt.Errorf("%w %q: %w", ErrInvalidEta, s, err)
		}
		return Constant(v[0]), nil
	case "linear":
		v, err := parseFloats(rest, 2)
		if err != nil {
			return Eta{}, fmt.Errorf("%w %q: %w", ErrInvalidEta, s, err)
		}
		return Linear(v[0], v[1]), nil
	case "piecewise":
		splitStr, valuesStr, ok := strings.Cut(rest, ":")
		if !ok {
			return Eta{}, fmt.Errorf("%w %q: expected piecewise:<split>:<v0>,<v1>,<v2>", ErrInvalidEta, s)
		}
		split, err := parseFloats(splitStr, 1)
		if err != nil {
			return Eta{}, fmt.Errorf("%w %q: %w", ErrInvalidEta, s, err)
		}
		if split[0] <= 0 || split[0] > 1 {
			return Eta{}, fmt.Errorf("%w %q: split must be in (0,1]", ErrInvalidEta, s)
		}
		v, err := parseFloats(valuesStr, 3)
		if err != nil {
			return Eta{}, fmt.Errorf("%w %q: %w", ErrInvalidEta, s, err)
		}
		return PiecewiseLinear(split[0], [3]float64{v[0], v[1], v[2]}), nil
	default:
		return Eta{}, fmt.Errorf("%w %q: unknown kind %q (expected constant|linear|piecewise)", ErrInvalidEta, s, kind)
	}
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(x float64) float64 {
	switch {
	case x < 0 || math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
