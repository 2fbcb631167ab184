package effects

import (
	"fmt"
	"math"

	"github.com/lionsflute/audiofx/dsp/buffer"
)

// Chorus reads the signal through a slowly modulated delay line. The
// delay is driven by a sinusoidal LFO and sampled at the nearest whole
// sample, with no interpolation between taps.
type Chorus struct {
	rate     float64
	depth    float64
	wetLevel float64
}

// ChorusOption adjusts optional chorus parameters.
type ChorusOption func(*Chorus)

// WithDepth overrides the modulation depth in seconds (default 0.002).
func WithDepth(depth float64) ChorusOption {
	return func(c *Chorus) {
		c.depth = depth
	}
}

// NewChorus builds a chorus with the given LFO rate in Hz and wet mix
// level.
func NewChorus(rate, wetLevel float64, opts ...ChorusOption) (*Chorus, error) {
	if rate < 0 {
		return nil, fmt.Errorf("chorus rate must be non-negative, got %v", rate)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	c := &Chorus{rate: rate, depth: 0.002, wetLevel: wetLevel}
	for _, opt := range opts {
		opt(c)
	}
	if c.depth < 0 {
		return nil, fmt.Errorf("chorus depth must be non-negative, got %v", c.depth)
	}
	return c, nil
}

// Rate returns the configured LFO rate in Hz.
func (c *Chorus) Rate() float64 { return c.rate }

// WetLevel returns the configured wet mix level.
func (c *Chorus) WetLevel() float64 { return c.wetLevel }

// Apply returns a new buffer with the modulated signal mixed in.
func (c *Chorus) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("chorus: input buffer is empty")
	}
	sr := float64(buf.SampleRate())
	depthSamples := c.depth * sr
	step := 2 * math.Pi * c.rate / sr

	out := buf.EmptyLike()
	wet := make([]float64, buf.Len())
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		for i := range wet {
			wet[i] = 0
			offset := int(math.Round(math.Sin(step*float64(i)) * depthSamples))
			idx := i - offset
			if idx < 0 {
				idx = 0
			}
			if idx < len(dry) {
				wet[i] = dry[idx]
			}
		}
		mixInto(out.Channel(ch), dry, wet, c.wetLevel)
	}
	return out, nil
}
