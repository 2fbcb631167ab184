package effects

import (
	"fmt"
	"time"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/conv"
	"github.com/lionsflute/audiofx/dsp/signal"
)

// Reverb convolves the input with a synthetic impulse response built
// from exponentially decaying noise. The impulse spans twice the room
// size in seconds and is normalized to unit peak before convolution.
type Reverb struct {
	roomSize float64
	damping  float64
	wetLevel float64
	seed     int64
}

// ReverbOption adjusts optional reverb parameters.
type ReverbOption func(*Reverb)

// WithDamping overrides the decay damping factor (default 0.5).
// Larger values stretch the impulse tail.
func WithDamping(damping float64) ReverbOption {
	return func(r *Reverb) {
		r.damping = damping
	}
}

// WithReverbSeed fixes the noise seed so repeated runs produce
// identical impulse responses. Without it every Apply draws a fresh
// impulse.
func WithReverbSeed(seed int64) ReverbOption {
	return func(r *Reverb) {
		r.seed = seed
	}
}

// NewReverb builds a reverb with the given room size in seconds and
// wet mix level.
func NewReverb(roomSize, wetLevel float64, opts ...ReverbOption) (*Reverb, error) {
	if roomSize < 0 {
		return nil, fmt.Errorf("room size must be non-negative, got %v", roomSize)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	r := &Reverb{
		roomSize: roomSize,
		damping:  0.5,
		wetLevel: wetLevel,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.damping <= 0 {
		return nil, fmt.Errorf("damping must be positive, got %v", r.damping)
	}
	return r, nil
}

// RoomSize returns the configured room size in seconds.
func (r *Reverb) RoomSize() float64 { return r.roomSize }

// WetLevel returns the configured wet mix level.
func (r *Reverb) WetLevel() float64 { return r.wetLevel }

// Apply returns a new buffer with the reverberated signal mixed in.
func (r *Reverb) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("reverb: input buffer is empty")
	}
	impulseLen := int(r.roomSize * 2 * float64(buf.SampleRate()))
	if impulseLen < 1 || r.wetLevel == 0 {
		return buf.Clone(), nil
	}

	seed := r.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen, err := signal.NewGenerator(float64(buf.SampleRate()), signal.WithSeed(seed))
	if err != nil {
		return nil, fmt.Errorf("reverb: %w", err)
	}
	impulse, err := gen.GaussianNoise(1.0, impulseLen)
	if err != nil {
		return nil, fmt.Errorf("reverb: %w", err)
	}
	decay, err := signal.ExpDecay(float64(impulseLen)*r.damping, impulseLen)
	if err != nil {
		return nil, fmt.Errorf("reverb: %w", err)
	}
	for i := range impulse {
		impulse[i] *= decay[i]
	}
	impulse, err = signal.Normalize(impulse, 1.0)
	if err != nil {
		return nil, fmt.Errorf("reverb: %w", err)
	}

	out := buf.EmptyLike()
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		wet, err := conv.ConvolveMode(dry, impulse, conv.ModeSame)
		if err != nil {
			return nil, fmt.Errorf("reverb: %w", err)
		}
		mixInto(out.Channel(ch), dry, wet, r.wetLevel)
	}
	return out, nil
}
