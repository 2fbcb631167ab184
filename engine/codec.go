package engine

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/lionsflute/audiofx/dsp/buffer"
)

// Decode reads path into a float64 sample buffer. The container is
// chosen by extension: .wav, .aiff/.aif, .mp3, and .ogg are supported.
func Decode(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f, path)
	case ".aiff", ".aif":
		return decodeAIFF(f, path)
	case ".mp3":
		return decodeMP3(f, path)
	case ".ogg":
		return decodeOGG(f, path)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported container %q", ErrDecode, path, filepath.Ext(path))
	}
}

func decodeWAV(f *os.File, path string) (*buffer.Buffer, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s: not a valid WAV file", ErrDecode, path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return fromIntBuffer(pcm, path)
}

func decodeAIFF(f *os.File, path string) (*buffer.Buffer, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s: not a valid AIFF file", ErrDecode, path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return fromIntBuffer(pcm, path)
}

// fromIntBuffer converts go-audio's interleaved integer PCM into a
// channel-major float buffer scaled to [-1, 1).
func fromIntBuffer(pcm *goaudio.IntBuffer, path string) (*buffer.Buffer, error) {
	if pcm == nil || pcm.Format == nil || len(pcm.Data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty PCM payload", ErrDecode, path)
	}
	bitDepth := int(pcm.SourceBitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1 / float64(int64(1)<<(bitDepth-1))

	data := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		data[i] = float64(v) * scale
	}
	buf, err := buffer.Deinterleave(data, pcm.Format.NumChannels, pcm.Format.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return buf, nil
}

// decodeMP3 reads the full stream. go-mp3 always yields 16-bit
// little-endian stereo PCM regardless of the source layout.
func decodeMP3(f *os.File, path string) (*buffer.Buffer, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %s: empty MP3 stream", ErrDecode, path)
	}

	samples := len(raw) / 2
	data := make([]float64, samples)
	for i := 0; i < samples; i++ {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		data[i] = float64(v) / 32768
	}
	buf, err := buffer.Deinterleave(data[:samples/2*2], 2, dec.SampleRate())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return buf, nil
}

func decodeOGG(f *os.File, path string) (*buffer.Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s: empty Vorbis stream", ErrDecode, path)
	}
	data := make([]float64, len(samples))
	for i, v := range samples {
		data[i] = float64(v)
	}
	buf, err := buffer.Deinterleave(data, format.Channels, format.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return buf, nil
}

// Encode writes buf to path as 16-bit PCM WAV, interleaving the
// channels at the boundary. An existing file is overwritten.
func Encode(buf *buffer.Buffer, path string) error {
	if buf == nil || buf.Len() == 0 {
		return fmt.Errorf("%w: %s: empty buffer", ErrWrite, path)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	defer out.Close()

	interleaved := buf.Interleave()
	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		data[i] = int(math.Round(clamp(v, -1, 1) * 32767))
	}

	enc := wav.NewEncoder(out, buf.SampleRate(), 16, buf.Channels(), 1)
	err = enc.Write(&goaudio.IntBuffer{
		Data: data,
		Format: &goaudio.Format{
			NumChannels: buf.Channels(),
			SampleRate:  buf.SampleRate(),
		},
		SourceBitDepth: 16,
	})
	if err != nil {
		enc.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
