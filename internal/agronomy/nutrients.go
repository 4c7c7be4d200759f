package agronomy

import (
	"fmt"
	"math"
)

// NPK holds a nitrogen/phosphorus/potassium triple. Depending on context it
// is a requirement in kilograms (per acre or total) or a dimensionless
// multiplier.
type NPK struct {
	N float64 `json:"n" yaml:"n"`
	P float64 `json:"p" yaml:"p"`
	K float64 `json:"k" yaml:"k"`
}

// Scale multiplies every component by f.
func (v NPK) Scale(f float64) NPK {
	return NPK{N: v.N * f, P: v.P * f, K: v.K * f}
}

// Mul multiplies v component-wise by o.
func (v NPK) Mul(o NPK) NPK {
	return NPK{N: v.N * o.N, P: v.P * o.P, K: v.K * o.K}
}

// Round returns v rounded to the given number of decimal places.
func (v NPK) Round(places int) NPK {
	p := math.Pow(10, float64(places))
	r := func(x float64) float64 { return math.Round(x*p) / p }
	return NPK{N: r(v.N), P: r(v.P), K: r(v.K)}
}

func (v NPK) String() string {
	return fmt.Sprintf("N=%.2f P=%.2f K=%.2f", v.N, v.P, v.K)
}

func (v NPK) checkNonNegative(what string) error {
	for _, c := range []float64{v.N, v.P, v.K} {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return fmt.Errorf("%w: %s must be finite and non-negative, got %s", ErrInvalidReferenceData, what, v)
		}
	}
	return nil
}

func (v NPK) checkPositive(what string) error {
	for _, c := range []float64{v.N, v.P, v.K} {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return fmt.Errorf("%w: %s must be finite and positive, got %s", ErrInvalidReferenceData, what, v)
		}
	}
	return nil
}
