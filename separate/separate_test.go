package separate

import (
	"math"
	"testing"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/signal"
)

func mixBuffer(t *testing.T, samples, sampleRate int) *buffer.Buffer {
	t.Helper()
	gen, err := signal.NewGenerator(float64(sampleRate))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	// A "vocal" tone inside the band plus a bass tone well below it.
	voice, err := gen.Sine(800, 0.5, samples)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}
	bass, err := gen.Sine(80, 0.5, samples)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}
	for i := range voice {
		voice[i] += bass[i]
	}
	buf, err := buffer.FromMono(voice, sampleRate)
	if err != nil {
		t.Fatalf("FromMono: %v", err)
	}
	return buf
}

func bandEnergy(samples []float64, freq, sampleRate float64) float64 {
	// Goertzel-style single-bin energy probe.
	var re, im float64
	step := 2 * math.Pi * freq / sampleRate
	for i, v := range samples {
		re += v * math.Cos(step*float64(i))
		im += v * math.Sin(step*float64(i))
	}
	return re*re + im*im
}

func TestSeparateShapes(t *testing.T) {
	const sr = 22050
	sep, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in := mixBuffer(t, sr, sr)

	res, err := sep.Separate(in)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	for name, stem := range map[string]*buffer.Buffer{
		"vocals": res.Vocals, "instruments": res.Instruments,
	} {
		if stem.Channels() != 1 {
			t.Errorf("%s: got %d channels, want mono", name, stem.Channels())
		}
		if stem.Len() != in.Len() {
			t.Errorf("%s: got %d samples, want %d", name, stem.Len(), in.Len())
		}
		if stem.SampleRate() != sr {
			t.Errorf("%s: got rate %d, want %d", name, stem.SampleRate(), sr)
		}
		if p := stem.Peak(); p > stemPeak+1e-9 {
			t.Errorf("%s: peak %g above ceiling %g", name, p, stemPeak)
		}
	}
}

func TestSeparateDownmixesStereo(t *testing.T) {
	const sr = 22050
	mono := mixBuffer(t, sr/2, sr)
	stereo, err := buffer.FromChannels([][]float64{
		append([]float64(nil), mono.Channel(0)...),
		append([]float64(nil), mono.Channel(0)...),
	}, sr)
	if err != nil {
		t.Fatalf("FromChannels: %v", err)
	}

	sep, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := sep.Separate(stereo)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if res.Vocals.Channels() != 1 || res.Instruments.Channels() != 1 {
		t.Fatal("stems must be mono for stereo input")
	}
}

func TestSeparateBandBias(t *testing.T) {
	const sr = 22050
	sep, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	in := mixBuffer(t, 2*sr, sr)

	res, err := sep.Separate(in)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}

	// In the vocal stem the in-band tone must dominate the bass tone
	// more strongly than in the instrumental stem.
	vocalRatio := bandEnergy(res.Vocals.Channel(0), 800, sr) /
		bandEnergy(res.Vocals.Channel(0), 80, sr)
	instrRatio := bandEnergy(res.Instruments.Channel(0), 800, sr) /
		bandEnergy(res.Instruments.Channel(0), 80, sr)
	if vocalRatio <= instrRatio {
		t.Errorf("vocal stem not biased toward the vocal band: %g <= %g", vocalRatio, instrRatio)
	}
}

func TestSeparateEmptyInput(t *testing.T) {
	sep, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sep.Separate(nil); err == nil {
		t.Error("expected error for nil buffer")
	}
}

func TestBandMasksInclusiveBounds(t *testing.T) {
	const (
		bins = 1025
		sr   = 22050
	)
	vocal, instr := bandMasks(bins, sr)

	nyquist := float64(sr) / 2
	lowBin := int(math.Round(vocalBandLowHz * float64(bins) / nyquist))
	highBin := int(math.Round(vocalBandHighHz * float64(bins) / nyquist))

	// Both edge bins count as in-band.
	for _, k := range []int{lowBin, highBin} {
		if vocal[k] != vocalInBandGain {
			t.Errorf("vocal[%d] = %g, want %g", k, vocal[k], vocalInBandGain)
		}
		if instr[k] != instrInBandGain {
			t.Errorf("instr[%d] = %g, want %g", k, instr[k], instrInBandGain)
		}
	}
	// Their immediate neighbors do not.
	for _, k := range []int{lowBin - 1, highBin + 1} {
		if vocal[k] != vocalOutOfBandGain {
			t.Errorf("vocal[%d] = %g, want %g", k, vocal[k], vocalOutOfBandGain)
		}
		if instr[k] != instrOutOfBandGain {
			t.Errorf("instr[%d] = %g, want %g", k, instr[k], instrOutOfBandGain)
		}
	}
}
