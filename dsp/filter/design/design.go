package design

import (
	"math"

	"github.com/lionsflute/audiofx/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q
// using the RBJ cookbook formulation.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q
// using the RBJ cookbook formulation.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := -(1 + cw)
	b0 := (1 + cw) / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Bandpass designs a constant-skirt-gain bandpass biquad.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := sw / 2
	b1 := 0.0
	b2 := -sw / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// normalizedW0 converts freq to rad/sample and validates the range.
func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || freq >= sampleRate/2 {
		return 0, false
	}
	return 2 * math.Pi * freq / sampleRate, true
}

// normalizedQ clamps a non-positive or non-finite Q to the Butterworth
// default.
func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}
	return q
}

// normalizeBiquad divides through by a0 so the stored denominator leads
// with 1.
func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}
	inv := 1 / a0
	return biquad.Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}
