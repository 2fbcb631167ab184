package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/effects"
)

// applier is the shared shape of every configured effect.
type applier interface {
	Apply(*buffer.Buffer) (*buffer.Buffer, error)
}

// buildEffect maps an effect name and normalized intensity i in [0, 1]
// to a fully parameterized transform. The affine mappings are part of
// the output contract and must not drift.
func (e *Engine) buildEffect(name string, i float64) (applier, error) {
	switch name {
	case "reverb":
		opts := []effects.ReverbOption{}
		if e.reverbSeed != 0 {
			opts = append(opts, effects.WithReverbSeed(e.reverbSeed))
		}
		return effects.NewReverb(i, i*0.5, opts...)
	case "echo":
		return effects.NewEcho(0.2+i*0.5, i*0.6)
	case "chorus":
		return effects.NewChorus(1.0+i*2.0, i*0.7)
	case "distortion":
		return effects.NewDistortion(1.0+i*4.0, i)
	case "compressor":
		return effects.NewCompressor(0.8-i*0.5, i)
	case "equalizer":
		return effects.NewEqualizer(0.5+i, 1.0+(i-0.5)*0.5, 0.7+i*0.6, i)
	case "delay":
		// Longer echo variant with its own decay ramp.
		return effects.NewEcho(0.5+i*1.0, i*0.5, effects.WithDecay(0.3+i*0.4))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEffect, name)
	}
}

// ApplyEffect decodes an uploaded file, runs the named effect at the
// given intensity percentage, and writes the result as
// {stem}_{effect}_{roundedIntensity}.wav under the processed
// directory. Effect names are case-insensitive. It returns the output
// path.
func (e *Engine) ApplyEffect(filename, effectName string, intensity float64) (string, error) {
	if intensity < 0 || intensity > 100 || math.IsNaN(intensity) {
		return "", fmt.Errorf("%w: intensity must be in [0, 100], got %v", ErrInvalidParameter, intensity)
	}
	effectName = strings.ToLower(effectName)
	fx, err := e.buildEffect(effectName, intensity/100)
	if err != nil {
		return "", err
	}

	buf, err := Decode(e.UploadPath(filename))
	if err != nil {
		return "", err
	}
	out, err := fx.Apply(buf)
	if err != nil {
		return "", fmt.Errorf("apply %s to %s: %w", effectName, filename, err)
	}

	outPath := e.ProcessedPath(fmt.Sprintf("%s_%s_%d.wav",
		stemName(filename), effectName, int(math.Round(intensity))))
	if err := Encode(out, outPath); err != nil {
		return "", err
	}

	e.log.WithFields(logrus.Fields{
		"source":    filename,
		"effect":    effectName,
		"intensity": intensity,
		"output":    outPath,
	}).Info("applied effect")
	return outPath, nil
}
