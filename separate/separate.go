package separate

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/stft"
)

// Analysis geometry and masking constants. The vocal band covers the
// range where vocal fundamentals and early harmonics concentrate.
const (
	frameSize = 2048
	hopSize   = 512

	vocalBandLowHz  = 300.0
	vocalBandHighHz = 3000.0

	vocalInBandGain    = 1.5
	vocalOutOfBandGain = 0.4
	instrInBandGain    = 0.3
	instrOutOfBandGain = 1.2

	stemPeak = 0.8
)

// Result holds the two separated stems. Both are mono at the source
// sample rate and peak-normalized to the same ceiling.
type Result struct {
	Vocals      *buffer.Buffer
	Instruments *buffer.Buffer
}

// Separator performs the masked STFT split.
type Separator struct {
	transform *stft.Transform
}

// New creates a separator with the default analysis geometry.
func New() (*Separator, error) {
	transform, err := stft.New(frameSize, hopSize)
	if err != nil {
		return nil, fmt.Errorf("separate: %w", err)
	}
	return &Separator{transform: transform}, nil
}

// Separate splits buf into vocal and instrumental stems. Multi-channel
// input is downmixed to mono before analysis. Both stems keep the
// source length and sample rate.
func (s *Separator) Separate(buf *buffer.Buffer) (*Result, error) {
	if buf == nil || buf.Len() == 0 {
		return nil, fmt.Errorf("separate: input buffer is empty")
	}
	mono := buf.DownmixMono()

	frames, err := s.transform.Analyze(mono.Channel(0))
	if err != nil {
		return nil, fmt.Errorf("separate: %w", err)
	}
	mag := frames.Magnitude()
	phase := frames.Phase()

	vocalMask, instrMask := bandMasks(frames.NumBins(), buf.SampleRate())
	vocalMag := make([][]float64, len(mag))
	instrMag := make([][]float64, len(mag))
	for i := range mag {
		vocalMag[i] = make([]float64, len(mag[i]))
		instrMag[i] = make([]float64, len(mag[i]))
		vecmath.MulBlock(vocalMag[i], mag[i], vocalMask)
		vecmath.MulBlock(instrMag[i], mag[i], instrMask)
	}

	vocals, err := s.reconstruct(frames, vocalMag, phase, buf.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("separate: vocals: %w", err)
	}
	instruments, err := s.reconstruct(frames, instrMag, phase, buf.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("separate: instruments: %w", err)
	}
	return &Result{Vocals: vocals, Instruments: instruments}, nil
}

// reconstruct rebuilds a stem from masked magnitudes and the original
// phases, then normalizes it to the stem ceiling.
func (s *Separator) reconstruct(frames *stft.Frames, mag, phase [][]float64, sampleRate int) (*buffer.Buffer, error) {
	masked, err := frames.FromMagnitudePhase(mag, phase)
	if err != nil {
		return nil, err
	}
	samples, err := s.transform.Synthesize(masked)
	if err != nil {
		return nil, err
	}
	stem, err := buffer.FromMono(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	stem.PeakNormalize(stemPeak)
	return stem, nil
}

// bandMasks returns per-bin gain vectors for the vocal and
// instrumental stems. Bins inside [low, high], both bounds inclusive,
// use the in-band gains.
func bandMasks(bins, sampleRate int) (vocal, instr []float64) {
	nyquist := float64(sampleRate) / 2
	lowBin := int(math.Round(vocalBandLowHz * float64(bins) / nyquist))
	highBin := int(math.Round(vocalBandHighHz * float64(bins) / nyquist))
	if lowBin < 0 {
		lowBin = 0
	}
	if highBin > bins-1 {
		highBin = bins - 1
	}

	vocal = make([]float64, bins)
	instr = make([]float64, bins)
	for k := 0; k < bins; k++ {
		if k >= lowBin && k <= highBin {
			vocal[k] = vocalInBandGain
			instr[k] = instrInBandGain
		} else {
			vocal[k] = vocalOutOfBandGain
			instr[k] = instrOutOfBandGain
		}
	}
	return vocal, instr
}
