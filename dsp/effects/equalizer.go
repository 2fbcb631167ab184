package effects

import (
	"fmt"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/filter/biquad"
	"github.com/lionsflute/audiofx/dsp/filter/design"
)

// Band edges for the three-way split, in Hz.
const (
	eqLowCrossover  = 300.0
	eqHighCrossover = 3000.0
	eqOrder         = 4
)

// Equalizer splits the signal into low, mid, and high bands with
// fourth-order Butterworth filters, scales each band, and sums them
// back together. Filtering runs forward and backward so the bands stay
// phase aligned when recombined.
type Equalizer struct {
	lowGain  float64
	midGain  float64
	highGain float64
	wetLevel float64
}

// NewEqualizer builds an equalizer with linear gains per band and a
// wet mix level.
func NewEqualizer(lowGain, midGain, highGain, wetLevel float64) (*Equalizer, error) {
	if lowGain < 0 || midGain < 0 || highGain < 0 {
		return nil, fmt.Errorf("equalizer gains must be non-negative, got %v/%v/%v", lowGain, midGain, highGain)
	}
	if err := validateWetLevel(wetLevel); err != nil {
		return nil, err
	}
	return &Equalizer{lowGain: lowGain, midGain: midGain, highGain: highGain, wetLevel: wetLevel}, nil
}

// Gains returns the configured low, mid, and high band gains.
func (e *Equalizer) Gains() (low, mid, high float64) {
	return e.lowGain, e.midGain, e.highGain
}

// WetLevel returns the configured wet mix level.
func (e *Equalizer) WetLevel() float64 { return e.wetLevel }

// Apply returns a new buffer with the rebalanced signal mixed in.
func (e *Equalizer) Apply(buf *buffer.Buffer) (*buffer.Buffer, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("equalizer: input buffer is empty")
	}
	sr := float64(buf.SampleRate())
	if eqHighCrossover >= sr/2 {
		return nil, fmt.Errorf("equalizer: sample rate %v too low for %v Hz crossover", buf.SampleRate(), eqHighCrossover)
	}

	low := design.ButterworthLP(eqLowCrossover, eqOrder, sr)
	mid := design.ButterworthBP(eqLowCrossover, eqHighCrossover, eqOrder, sr)
	high := design.ButterworthHP(eqHighCrossover, eqOrder, sr)

	out := buf.EmptyLike()
	for ch := 0; ch < buf.Channels(); ch++ {
		dry := buf.Channel(ch)
		lowBand := biquad.ZeroPhase(low, dry)
		midBand := biquad.ZeroPhase(mid, dry)
		highBand := biquad.ZeroPhase(high, dry)

		dst := out.Channel(ch)
		for i, x := range dry {
			wet := lowBand[i]*e.lowGain + midBand[i]*e.midGain + highBand[i]*e.highGain
			dst[i] = x*(1-e.wetLevel) + wet*e.wetLevel
		}
	}
	return out, nil
}
