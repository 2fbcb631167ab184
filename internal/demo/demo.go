// Package demo composes synthetic test tracks: a band-style mix with
// separate vocal and instrumental layers, and an electronic mix. Both
// are meant as separation and effect inputs, not as music.
package demo

import (
	"fmt"
	"math"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/signal"
)

const demoPeak = 0.8

// noteSpan returns the sample range of note i when the track is split
// into count equal notes.
func noteSpan(i, count, samples int, sampleRate float64, duration float64) (start, end int) {
	noteDuration := duration / float64(count)
	start = int(float64(i) * noteDuration * sampleRate)
	end = int(float64(i+1) * noteDuration * sampleRate)
	if end > samples {
		end = samples
	}
	return start, end
}

// GenerateBandTrack builds a stereo demo with a bass line, rhythm
// guitar, lead melody, kick pattern, and a harmonic "vocal" line with
// vibrato. The output is peak-normalized and duplicated to both
// channels.
func GenerateBandTrack(duration float64, sampleRate int) (*buffer.Buffer, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("demo duration must be positive, got %v", duration)
	}
	gen, err := signal.NewGenerator(float64(sampleRate))
	if err != nil {
		return nil, err
	}
	samples := int(duration * float64(sampleRate))
	sr := float64(sampleRate)

	mix := make([]float64, samples)

	// Bass line. The instrumental layers sit at 0.7 of their raw
	// level against the vocals at 0.8.
	addSine(gen, mix, 80, 0.7*0.3)
	addSine(gen, mix, 120, 0.7*0.2)

	// Rhythm guitar with slow amplitude tremolo.
	guitar, err := gen.Sine(220, 0.4, samples)
	if err != nil {
		return nil, err
	}
	for i := range guitar {
		trem := 1 + 0.1*math.Sin(2*math.Pi*4*float64(i)/sr)
		mix[i] += 0.7 * guitar[i] * trem
	}

	// Lead melody, one note per segment.
	melody := []float64{440, 523, 659, 784, 659, 523, 440}
	for n, freq := range melody {
		start, end := noteSpan(n, len(melody), samples, sr, duration)
		for i := start; i < end; i++ {
			mix[i] += 0.7 * 0.3 * math.Sin(2*math.Pi*freq*float64(i)/sr)
		}
	}

	// Kick drum bursts twice a second.
	addKicks(mix, sr, sampleRate/2, 1000, 200, 60, 0.5*0.7)

	// Vocal line: fundamental plus two harmonics, 5 Hz vibrato.
	vocal := []float64{330, 370, 415, 466, 415, 370, 330}
	for n, freq := range vocal {
		start, end := noteSpan(n, len(vocal), samples, sr, duration)
		for i := start; i < end; i++ {
			phase := 2 * math.Pi * freq * float64(i) / sr
			v := 0.4*math.Sin(phase) + 0.2*math.Sin(2*phase) + 0.1*math.Sin(3*phase)
			vibrato := 1 + 0.05*math.Sin(2*math.Pi*5*float64(i)/sr)
			mix[i] += 0.8 * v * vibrato
		}
	}

	return toStereo(mix, sampleRate)
}

// GenerateElectronicTrack builds a stereo demo from a sawtooth bass, a
// detuned chord pad, a filter-swept square lead, an electronic kick
// and hi-hat pattern, and a single 100 ms slapback tap.
func GenerateElectronicTrack(duration float64, sampleRate int) (*buffer.Buffer, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("demo duration must be positive, got %v", duration)
	}
	gen, err := signal.NewGenerator(float64(sampleRate))
	if err != nil {
		return nil, err
	}
	samples := int(duration * float64(sampleRate))
	sr := float64(sampleRate)

	mix, err := gen.Sawtooth(55, 0.4, samples)
	if err != nil {
		return nil, err
	}

	// A-minor pad with a slightly detuned double of each chord tone.
	for _, freq := range []float64{220, 277, 330} {
		addSine(gen, mix, freq, 0.2)
		addSine(gen, mix, freq*1.01, 0.1)
	}

	// Square lead through a one-pole lowpass whose cutoff sweeps at
	// 0.5 Hz.
	lead, err := gen.Square(440, 0.3, samples)
	if err != nil {
		return nil, err
	}
	prev := lead[0]
	for i := 1; i < len(lead); i++ {
		cutoff := 1000 + 500*math.Sin(2*math.Pi*0.5*float64(i)/sr)
		alpha := 2 * math.Pi * cutoff / sr
		if alpha > 1 {
			alpha = 1
		}
		prev = alpha*lead[i] + (1-alpha)*prev
		lead[i] = prev
	}
	for i := range mix {
		mix[i] += lead[i]
	}

	// Four kicks per second with hi-hat noise bursts on the off-beats.
	beat := sampleRate / 4
	addKicks(mix, sr, beat, 500, 100, 80, 0.6)
	hat, err := gen.GaussianNoise(1, 100)
	if err != nil {
		return nil, err
	}
	hatEnv, err := signal.ExpDecay(20, 100)
	if err != nil {
		return nil, err
	}
	for i := 0; i < samples; i += beat {
		start := i + beat/2
		if start+100 >= samples {
			continue
		}
		for j := 0; j < 100; j++ {
			mix[start+j] += 0.3 * hat[j] * hatEnv[j]
		}
	}

	// Slapback tap 100 ms behind the mix.
	tap := int(0.1 * sr)
	for i := samples - 1; i >= tap; i-- {
		mix[i] += mix[i-tap] * 0.3
	}

	return toStereo(mix, sampleRate)
}

// addSine mixes a sine of the full track length into dst.
func addSine(gen *signal.Generator, dst []float64, freq, amplitude float64) {
	step := 2 * math.Pi * freq / gen.SampleRate()
	for i := range dst {
		dst[i] += amplitude * math.Sin(step*float64(i))
	}
}

// addKicks places decaying sine bursts every interval samples.
func addKicks(dst []float64, sr float64, interval, burstLen int, tau, freq, amplitude float64) {
	for i := 0; i+burstLen < len(dst); i += interval {
		for j := 0; j < burstLen; j++ {
			env := math.Exp(-float64(j) / tau)
			dst[i+j] += amplitude * env * math.Sin(2*math.Pi*freq*float64(j)/sr)
		}
	}
}

// toStereo normalizes the mono mix and duplicates it to two channels.
func toStereo(mix []float64, sampleRate int) (*buffer.Buffer, error) {
	normalized, err := signal.Normalize(mix, demoPeak)
	if err != nil {
		return nil, err
	}
	right := append([]float64(nil), normalized...)
	return buffer.FromChannels([][]float64{normalized, right}, sampleRate)
}
