package engine

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/separate"
)

// Engine binds the transforms to a pair of storage directories:
// sources are read from the upload directory, results land in the
// processed directory.
type Engine struct {
	uploadDir    string
	processedDir string
	ffmpegPath   string
	reverbSeed   int64
	log          *logrus.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFFmpegPath overrides the ffmpeg binary used for delivery
// transcoding (default "ffmpeg", resolved via PATH).
func WithFFmpegPath(path string) Option {
	return func(e *Engine) {
		e.ffmpegPath = path
	}
}

// WithLogger replaces the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithReverbSeed pins the reverb impulse seed so dispatched reverbs
// are reproducible.
func WithReverbSeed(seed int64) Option {
	return func(e *Engine) {
		e.reverbSeed = seed
	}
}

// New creates an engine rooted at the given directories.
func New(uploadDir, processedDir string, opts ...Option) (*Engine, error) {
	if uploadDir == "" || processedDir == "" {
		return nil, fmt.Errorf("%w: upload and processed directories must be set", ErrInvalidParameter)
	}
	e := &Engine{
		uploadDir:    uploadDir,
		processedDir: processedDir,
		ffmpegPath:   "ffmpeg",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logrus.New()
		e.log.SetOutput(io.Discard)
	}
	return e, nil
}

// UploadPath returns the storage path for an uploaded filename.
func (e *Engine) UploadPath(filename string) string {
	return filepath.Join(e.uploadDir, filename)
}

// ProcessedPath returns the storage path for a result filename.
func (e *Engine) ProcessedPath(filename string) string {
	return filepath.Join(e.processedDir, filename)
}

// SeparateTrack splits an uploaded file into vocal and instrumental
// stems and writes both as WAV files named {stem}_vocals.wav and
// {stem}_instruments.wav under the processed directory. It returns the
// two output paths.
func (e *Engine) SeparateTrack(filename string) (vocalsPath, instrumentsPath string, err error) {
	src := e.UploadPath(filename)
	buf, err := Decode(src)
	if err != nil {
		return "", "", err
	}

	sep, err := separate.New()
	if err != nil {
		return "", "", fmt.Errorf("separate %s: %w", filename, err)
	}
	res, err := sep.Separate(buf)
	if err != nil {
		return "", "", fmt.Errorf("separate %s: %w", filename, err)
	}

	stem := stemName(filename)
	vocalsPath = e.ProcessedPath(stem + "_vocals.wav")
	instrumentsPath = e.ProcessedPath(stem + "_instruments.wav")
	if err := Encode(res.Vocals, vocalsPath); err != nil {
		return "", "", err
	}
	if err := Encode(res.Instruments, instrumentsPath); err != nil {
		return "", "", err
	}

	e.log.WithFields(logrus.Fields{
		"source":      filename,
		"vocals":      vocalsPath,
		"instruments": instrumentsPath,
	}).Info("separated track")
	return vocalsPath, instrumentsPath, nil
}

// stemName strips the extension from an uploaded filename.
func stemName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
