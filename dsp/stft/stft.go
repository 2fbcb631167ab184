package stft

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/lionsflute/audiofx/dsp/window"
)

const normFloor = 1e-12

// Transform computes forward and inverse short-time Fourier transforms
// with a periodic Hann analysis window. It is one-shot buffer oriented
// and not thread-safe; create one Transform per goroutine.
type Transform struct {
	frameSize int
	hop       int

	plan         *algofft.Plan[complex128]
	windowCoeffs []float64

	frame []complex128
}

// Frames holds the half-spectrum bins of an analyzed signal, frame
// major: Bins[frame][bin] with frameSize/2+1 bins per frame.
type Frames struct {
	Bins      [][]complex128
	frameSize int
	hop       int
	inputLen  int
}

// NumFrames returns the number of analysis frames.
func (f *Frames) NumFrames() int { return len(f.Bins) }

// NumBins returns the number of frequency bins per frame.
func (f *Frames) NumBins() int { return f.frameSize/2 + 1 }

// InputLen returns the length of the analyzed signal.
func (f *Frames) InputLen() int { return f.inputLen }

// New creates a Transform with the given frame and hop size.
// frameSize must be a power of two; hop must be in [1, frameSize).
func New(frameSize, hop int) (*Transform, error) {
	if frameSize < 2 || !isPowerOf2(frameSize) {
		return nil, fmt.Errorf("stft frame size must be a power of two >= 2: %d", frameSize)
	}
	if hop <= 0 || hop >= frameSize {
		return nil, fmt.Errorf("stft hop must be in [1, %d): %d", frameSize, hop)
	}

	plan, err := algofft.NewPlan64(frameSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(window.TypeHann, frameSize, window.WithPeriodic())
	if len(coeffs) != frameSize {
		return nil, fmt.Errorf("stft: window generation failed for size %d", frameSize)
	}

	return &Transform{
		frameSize:    frameSize,
		hop:          hop,
		plan:         plan,
		windowCoeffs: coeffs,
		frame:        make([]complex128, frameSize),
	}, nil
}

// FrameSize returns the analysis frame size in samples.
func (t *Transform) FrameSize() int { return t.frameSize }

// Hop returns the hop size in samples.
func (t *Transform) Hop() int { return t.hop }

// Analyze computes the forward transform of input. Frames past the end
// of the input are zero-padded.
func (t *Transform) Analyze(input []float64) (*Frames, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("stft: empty input")
	}

	frameCount := 1 + (len(input)-1)/t.hop
	bins := t.frameSize/2 + 1

	out := &Frames{
		Bins:      make([][]complex128, frameCount),
		frameSize: t.frameSize,
		hop:       t.hop,
		inputLen:  len(input),
	}

	for frame := 0; frame < frameCount; frame++ {
		pos := frame * t.hop

		for i := 0; i < t.frameSize; i++ {
			x := 0.0
			if idx := pos + i; idx < len(input) {
				x = input[idx]
			}
			t.frame[i] = complex(x*t.windowCoeffs[i], 0)
		}

		if err := t.plan.Forward(t.frame, t.frame); err != nil {
			return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
		}

		out.Bins[frame] = make([]complex128, bins)
		copy(out.Bins[frame], t.frame[:bins])
	}

	return out, nil
}

// Synthesize inverts frames back to the time domain by overlap-add with
// squared-window normalization, trimming the result to the analyzed
// input length.
func (t *Transform) Synthesize(frames *Frames) ([]float64, error) {
	if frames == nil || len(frames.Bins) == 0 {
		return nil, fmt.Errorf("stft: no frames to synthesize")
	}
	if frames.frameSize != t.frameSize || frames.hop != t.hop {
		return nil, fmt.Errorf("stft: frame geometry mismatch: frames are %d/%d, transform is %d/%d",
			frames.frameSize, frames.hop, t.frameSize, t.hop)
	}

	half := t.frameSize / 2
	outLen := (len(frames.Bins)-1)*t.hop + t.frameSize
	output := make([]float64, outLen)
	norm := make([]float64, outLen)

	for frame, bins := range frames.Bins {
		if len(bins) != half+1 {
			return nil, fmt.Errorf("stft: frame %d has %d bins, want %d", frame, len(bins), half+1)
		}

		// Rebuild the full spectrum with conjugate symmetry so the
		// inverse transform is real valued.
		t.frame[0] = complex(real(bins[0]), 0)
		t.frame[half] = complex(real(bins[half]), 0)
		for k := 1; k < half; k++ {
			t.frame[k] = bins[k]
			t.frame[t.frameSize-k] = cmplx.Conj(bins[k])
		}

		if err := t.plan.Inverse(t.frame, t.frame); err != nil {
			return nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
		}

		pos := frame * t.hop
		for i := 0; i < t.frameSize; i++ {
			w := t.windowCoeffs[i]
			output[pos+i] += real(t.frame[i]) * w
			norm[pos+i] += w * w
		}
	}

	for i := range output {
		if norm[i] > normFloor {
			output[i] /= norm[i]
		}
	}

	if frames.inputLen > 0 && frames.inputLen < len(output) {
		output = output[:frames.inputLen]
	}
	return output, nil
}

// Magnitude returns |X| for every (frame, bin) cell.
func (f *Frames) Magnitude() [][]float64 {
	out := make([][]float64, len(f.Bins))
	bins := f.NumBins()
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i, frame := range f.Bins {
		for k, c := range frame {
			re[k] = real(c)
			im[k] = imag(c)
		}
		out[i] = make([]float64, bins)
		vecmath.Magnitude(out[i], re, im)
	}
	return out
}

// Phase returns arg(X) in radians for every (frame, bin) cell.
func (f *Frames) Phase() [][]float64 {
	out := make([][]float64, len(f.Bins))
	for i, frame := range f.Bins {
		out[i] = make([]float64, len(frame))
		for k, c := range frame {
			out[i][k] = cmplx.Phase(c)
		}
	}
	return out
}

// FromMagnitudePhase rebuilds complex frames from magnitude and phase
// grids with the same geometry as the receiver.
func (f *Frames) FromMagnitudePhase(mag, phase [][]float64) (*Frames, error) {
	if len(mag) != len(f.Bins) || len(phase) != len(f.Bins) {
		return nil, fmt.Errorf("stft: magnitude/phase frame count mismatch: %d/%d want %d",
			len(mag), len(phase), len(f.Bins))
	}

	out := &Frames{
		Bins:      make([][]complex128, len(f.Bins)),
		frameSize: f.frameSize,
		hop:       f.hop,
		inputLen:  f.inputLen,
	}
	for i := range f.Bins {
		if len(mag[i]) != len(f.Bins[i]) || len(phase[i]) != len(f.Bins[i]) {
			return nil, fmt.Errorf("stft: magnitude/phase bin count mismatch at frame %d", i)
		}
		out.Bins[i] = make([]complex128, len(f.Bins[i]))
		for k := range f.Bins[i] {
			s, c := math.Sincos(phase[i][k])
			out.Bins[i][k] = complex(mag[i][k]*c, mag[i][k]*s)
		}
	}
	return out, nil
}

func isPowerOf2(v int) bool {
	return v > 0 && (v&(v-1)) == 0
}
