package signal

import (
	"fmt"
	"math"
	"math/rand"
)

// Generator creates deterministic test and synthesis signals at a fixed
// sample rate.
type Generator struct {
	sampleRate float64
	seed       int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the deterministic random seed used for noise output.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a signal generator for the given sample rate.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("generator sample rate must be positive and finite: %f", sampleRate)
	}

	g := &Generator{sampleRate: sampleRate, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// SampleRate returns the generator sample rate in Hz.
func (g *Generator) SampleRate() float64 { return g.sampleRate }

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// Sawtooth generates a rising sawtooth in [-amplitude, amplitude].
func (g *Generator) Sawtooth(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sawtooth samples must be > 0: %d", samples)
	}

	out := make([]float64, samples)
	for i := range out {
		phase := math.Mod(freqHz*float64(i)/g.sampleRate, 1)
		out[i] = amplitude * (2*phase - 1)
	}
	return out, nil
}

// Square generates a square wave alternating between +amplitude and
// -amplitude.
func (g *Generator) Square(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("square samples must be > 0: %d", samples)
	}

	out := make([]float64, samples)
	for i := range out {
		phase := math.Mod(freqHz*float64(i)/g.sampleRate, 1)
		if phase < 0.5 {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return out, nil
}

// WhiteNoise generates deterministic uniform noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// GaussianNoise generates deterministic normally distributed noise with
// the given standard deviation.
func (g *Generator) GaussianNoise(stddev float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if stddev < 0 {
		return nil, fmt.Errorf("noise stddev must be >= 0: %f", stddev)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = rng.NormFloat64() * stddev
	}
	return out, nil
}

// ExpDecay generates exp(-i/tau) for i in [0, samples).
// tau is expressed in samples.
func ExpDecay(tau float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("decay samples must be > 0: %d", samples)
	}
	if tau <= 0 {
		return nil, fmt.Errorf("decay tau must be > 0: %f", tau)
	}

	out := make([]float64, samples)
	for i := range out {
		out[i] = math.Exp(-float64(i) / tau)
	}
	return out, nil
}

// Normalize scales data to the target peak amplitude and returns a new
// slice. Silent input is returned as an unscaled copy.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}

	out := make([]float64, len(data))
	peak := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		copy(out, data)
		return out, nil
	}

	scale := targetPeak / peak
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}
