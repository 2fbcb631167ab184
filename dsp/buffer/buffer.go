package buffer

import (
	"fmt"
	"math"
)

// Buffer holds multi-channel audio as channel-major float64 samples
// plus the sample rate they were captured at. All channels have equal
// length. Samples are unclipped; a fixed bit depth only applies once a
// Buffer is encoded to a file.
type Buffer struct {
	channels   [][]float64
	sampleRate int
}

// New returns a zero-filled Buffer with the given channel count and
// per-channel length.
func New(channelCount, length, sampleRate int) (*Buffer, error) {
	if channelCount <= 0 {
		return nil, fmt.Errorf("buffer channel count must be > 0: %d", channelCount)
	}
	if length < 0 {
		return nil, fmt.Errorf("buffer length must be >= 0: %d", length)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("buffer sample rate must be > 0: %d", sampleRate)
	}

	channels := make([][]float64, channelCount)
	for i := range channels {
		channels[i] = make([]float64, length)
	}

	return &Buffer{channels: channels, sampleRate: sampleRate}, nil
}

// FromChannels wraps existing channel-major sample slices without copying.
// Mutations to the slices are visible through the Buffer and vice versa.
// All channels must have equal length.
func FromChannels(channels [][]float64, sampleRate int) (*Buffer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("buffer requires at least one channel")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("buffer sample rate must be > 0: %d", sampleRate)
	}
	for i := 1; i < len(channels); i++ {
		if len(channels[i]) != len(channels[0]) {
			return nil, fmt.Errorf("buffer channel length mismatch: channel 0 has %d samples, channel %d has %d",
				len(channels[0]), i, len(channels[i]))
		}
	}

	return &Buffer{channels: channels, sampleRate: sampleRate}, nil
}

// FromMono wraps a single channel without copying.
func FromMono(samples []float64, sampleRate int) (*Buffer, error) {
	return FromChannels([][]float64{samples}, sampleRate)
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.channels) }

// Len returns the per-channel sample count.
func (b *Buffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Channel returns the underlying slice for channel i.
func (b *Buffer) Channel(i int) []float64 { return b.channels[i] }

// Duration returns the buffer duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.sampleRate)
}

// Clone returns a deep copy sharing no sample storage with the receiver.
func (b *Buffer) Clone() *Buffer {
	channels := make([][]float64, len(b.channels))
	for i, ch := range b.channels {
		channels[i] = make([]float64, len(ch))
		copy(channels[i], ch)
	}
	return &Buffer{channels: channels, sampleRate: b.sampleRate}
}

// EmptyLike returns a zero-filled Buffer with the same shape and rate.
func (b *Buffer) EmptyLike() *Buffer {
	channels := make([][]float64, len(b.channels))
	for i, ch := range b.channels {
		channels[i] = make([]float64, len(ch))
	}
	return &Buffer{channels: channels, sampleRate: b.sampleRate}
}

// DownmixMono returns a new mono buffer averaging all channels per frame.
// A mono input is copied unchanged.
func (b *Buffer) DownmixMono() *Buffer {
	n := b.Len()
	out := make([]float64, n)

	if len(b.channels) == 1 {
		copy(out, b.channels[0])
		return &Buffer{channels: [][]float64{out}, sampleRate: b.sampleRate}
	}

	for _, ch := range b.channels {
		for i, x := range ch {
			out[i] += x
		}
	}
	scale := 1 / float64(len(b.channels))
	for i := range out {
		out[i] *= scale
	}

	return &Buffer{channels: [][]float64{out}, sampleRate: b.sampleRate}
}

// Peak returns the maximum absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.channels {
		for _, x := range ch {
			if a := math.Abs(x); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// PeakNormalize scales all channels in place so the buffer peak equals
// target. A silent buffer (peak 0) is left unchanged; the guard avoids
// a division by zero.
func (b *Buffer) PeakNormalize(target float64) {
	peak := b.Peak()
	if peak == 0 {
		return
	}

	scale := target / peak
	for _, ch := range b.channels {
		for i := range ch {
			ch[i] *= scale
		}
	}
}

// Interleave returns samples as frame-major interleaved data: frame 0
// of every channel, then frame 1, and so on. Mono input returns a copy
// of the single channel.
func (b *Buffer) Interleave() []float64 {
	n := b.Len()
	chans := len(b.channels)
	out := make([]float64, n*chans)

	if chans == 1 {
		copy(out, b.channels[0])
		return out
	}

	for c, ch := range b.channels {
		for i, x := range ch {
			out[i*chans+c] = x
		}
	}
	return out
}

// Deinterleave builds a Buffer from frame-major interleaved samples.
// Trailing samples short of a full frame are dropped.
func Deinterleave(data []float64, channelCount, sampleRate int) (*Buffer, error) {
	if channelCount <= 0 {
		return nil, fmt.Errorf("buffer channel count must be > 0: %d", channelCount)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("buffer sample rate must be > 0: %d", sampleRate)
	}

	frames := len(data) / channelCount
	channels := make([][]float64, channelCount)
	for c := range channels {
		channels[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			channels[c][i] = data[i*channelCount+c]
		}
	}

	return &Buffer{channels: channels, sampleRate: sampleRate}, nil
}
