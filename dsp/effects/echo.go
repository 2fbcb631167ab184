package effects

import (
	"fmt"

	"github.com/lionsflute/audiofx/dsp/buffer"
)

// Echo adds a single delayed copy of the signal, attenuated by the
// decay factor. The delayed tail past the original length is dropped.
type Echo struct {
	delay    float64
	decay    float64
	wetLevel float64
}

// EchoOption adjusts optional echo parameters.
type EchoOption func(*Echo)

// WithDecay overrides the echo attenuation factor (default 0.5).
func WithDecay(decay float64) EchoOption {
	return func(e *Echo) {
		e.decay = decay
	}
}

// NewEcho builds an echo with the given delay in seconds and wet mix
// level.
func NewEcho(delay, wetLevel float64, opts ...EchoOption) (*Echo, error) {
	if delay < 0 {
		return nil, fmt.Errorf("echo delay must be non-negative, got %v", delay)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	e := &Echo{delay: delay, decay: 0.5, wetLevel: wetLevel}
	for _, opt := range opts {
		opt(e)
	}
	if e.decay < 0 || e.decay > 1 {
		return nil, fmt.Errorf("echo decay must be in [0, 1], got %v", e.decay)
	}
	return e, nil
}

// Delay returns the configured delay in seconds.
func (e *Echo) Delay() float64 { return e.delay }

// Decay returns the configured attenuation factor.
func (e *Echo) Decay() float64 { return e.decay }

// WetLevel returns the configured wet mix level.
func (e *Echo) WetLevel() float64 { return e.wetLevel }

// Apply returns a new buffer with the echo mixed in.
func (e *Echo) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("echo: input buffer is empty")
	}
	delaySamples := int(e.delay * float64(buf.SampleRate()))

	out := buf.EmptyLike()
	wet := make([]float64, buf.Len())
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		copy(wet, dry)
		for i := delaySamples; i < len(wet); i++ {
			wet[i] += dry[i-delaySamples] * e.decay
		}
		mixInto(out.Channel(ch), dry, wet, e.wetLevel)
	}
	return out, nil
}
