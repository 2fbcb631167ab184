package window

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic generates a periodic (DFT-even) window instead of a
// symmetric one. Use this for spectral analysis with overlapping
// frames.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
// An unknown type or non-positive length yields a nil slice.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out
	}

	denom := float64(length - 1)
	if cfg.periodic {
		denom = float64(length)
	}

	for i := range out {
		x := 2 * math.Pi * float64(i) / denom
		switch t {
		case TypeRectangular:
			out[i] = 1
		case TypeHann:
			out[i] = 0.5 * (1 - math.Cos(x))
		case TypeHamming:
			out[i] = 0.54 - 0.46*math.Cos(x)
		case TypeBlackman:
			out[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
		default:
			return nil
		}
	}

	return out
}

// Apply multiplies buf by coeffs in place. Both slices must have the
// same length.
func Apply(buf, coeffs []float64) {
	vecmath.MulBlockInPlace(buf, coeffs)
}

// AppliedTo writes samples*coeffs into out. All slices must have the
// same length.
func AppliedTo(out, samples, coeffs []float64) {
	vecmath.MulBlock(out, samples, coeffs)
}
