package effects

import (
	"fmt"
	"math"

	"github.com/lionsflute/audiofx/dsp/buffer"
)

// Distortion applies hyperbolic tangent waveshaping. The curve is
// monotone and bounded, so output peaks never exceed 1 regardless of
// gain.
type Distortion struct {
	gain     float64
	wetLevel float64
}

// NewDistortion builds a distortion with the given pre-gain and wet
// mix level.
func NewDistortion(gain, wetLevel float64) (*Distortion, error) {
	if gain < 0 {
		return nil, fmt.Errorf("distortion gain must be non-negative, got %v", gain)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	return &Distortion{gain: gain, wetLevel: wetLevel}, nil
}

// Gain returns the configured pre-gain.
func (d *Distortion) Gain() float64 { return d.gain }

// WetLevel returns the configured wet mix level.
func (d *Distortion) WetLevel() float64 { return d.wetLevel }

// Apply returns a new buffer with the shaped signal mixed in.
func (d *Distortion) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("distortion: input buffer is empty")
	}

	out := buf.EmptyLike()
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		dst := out.Channel(ch)
		for i, x := range dry {
			wet := math.Tanh(d.gain * x)
			dst[i] = x*(1-d.wetLevel) + wet*d.wetLevel
		}
	}
	return out, nil
}
