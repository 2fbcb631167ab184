// Package conv provides linear convolution with automatic selection
// between direct time-domain evaluation and an FFT-based path.
//
// Direct convolution is O(N*M) and wins for short kernels; the FFT path
// zero-pads both inputs to a shared power-of-two length and multiplies
// in the frequency domain, which is what makes second-scale reverb
// impulses affordable.
package conv

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput  = errors.New("conv: empty input")
	ErrEmptyKernel = errors.New("conv: empty kernel")
)

// Mode specifies the output mode for convolution.
type Mode int

const (
	// ModeFull returns the full convolution result with length len(a)+len(b)-1.
	ModeFull Mode = iota

	// ModeSame returns the centered portion with the same length as the
	// first input.
	ModeSame

	// ModeValid returns only the portion where the signals fully overlap.
	ModeValid
)

// directThreshold is the kernel length above which the FFT path is used.
const directThreshold = 64

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			result[i+j] += a[i] * b[j]
		}
	}
	return result, nil
}

// Convolve performs linear convolution with automatic algorithm
// selection: direct evaluation for short kernels, FFT otherwise.
func Convolve(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	// Keep a as the longer signal.
	if len(b) > len(a) {
		a, b = b, a
	}

	if len(b) <= directThreshold {
		return Direct(a, b)
	}
	return fftConvolve(a, b)
}

// ConvolveMode performs convolution with the specified output mode.
// For ModeSame the result is centered on the first input, matching the
// usual "same" semantics of numeric libraries.
func ConvolveMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := Convolve(a, b)
	if err != nil {
		return nil, err
	}
	return trimToMode(full, len(a), len(b), mode), nil
}

func trimToMode(full []float64, lenA, lenB int, mode Mode) []float64 {
	switch mode {
	case ModeSame:
		start := (lenB - 1) / 2
		return full[start : start+lenA]
	case ModeValid:
		if lenA >= lenB {
			return full[lenB-1 : lenA]
		}
		return full[lenA-1 : lenB]
	default:
		return full
	}
}

// fftConvolve computes the full linear convolution through a single
// zero-padded FFT of both operands.
func fftConvolve(a, b []float64) ([]float64, error) {
	outLen := len(a) + len(b) - 1
	fftSize := nextPowerOf2(outLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	pa := make([]complex128, fftSize)
	for i, v := range a {
		pa[i] = complex(v, 0)
	}
	pb := make([]complex128, fftSize)
	for i, v := range b {
		pb[i] = complex(v, 0)
	}

	if err := plan.Forward(pa, pa); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}
	if err := plan.Forward(pb, pb); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range pa {
		pa[i] *= pb[i]
	}

	if err := plan.Inverse(pa, pa); err != nil {
		return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(pa[i])
	}
	return out, nil
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
