package effects

import (
	"fmt"
	"math"

	"github.com/lionsflute/audiofx/dsp/buffer"
)

// Compressor reduces sample values whose magnitude exceeds the
// threshold by the given ratio. The knee formula is applied to the
// signed sample, so negative excursions past the threshold fold toward
// the positive threshold rather than mirroring it.
type Compressor struct {
	threshold float64
	ratio     float64
	wetLevel  float64
}

// CompressorOption adjusts optional compressor parameters.
type CompressorOption func(*Compressor)

// WithRatio overrides the compression ratio (default 4).
func WithRatio(ratio float64) CompressorOption {
	return func(c *Compressor) {
		c.ratio = ratio
	}
}

// NewCompressor builds a compressor with the given threshold and wet
// mix level.
func NewCompressor(threshold, wetLevel float64, opts ...CompressorOption) (*Compressor, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("compressor threshold must be non-negative, got %v", threshold)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	c := &Compressor{threshold: threshold, ratio: 4, wetLevel: wetLevel}
	for _, opt := range opts {
		opt(c)
	}
	if c.ratio < 1 {
		return nil, fmt.Errorf("compressor ratio must be >= 1, got %v", c.ratio)
	}
	return c, nil
}

// Threshold returns the configured knee threshold.
func (c *Compressor) Threshold() float64 { return c.threshold }

// Ratio returns the configured compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// WetLevel returns the configured wet mix level.
func (c *Compressor) WetLevel() float64 { return c.wetLevel }

// Apply returns a new buffer with the compressed signal mixed in.
func (c *Compressor) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("compressor: input buffer is empty")
	}

	out := buf.EmptyLike()
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		dst := out.Channel(ch)
		for i, x := range dry {
			wet := x
			if math.Abs(x) > c.threshold {
				wet = c.threshold + (x-c.threshold)/c.ratio
			}
			dst[i] = x*(1-c.wetLevel) + wet*c.wetLevel
		}
	}
	return out, nil
}
