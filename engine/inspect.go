package engine

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Metadata describes a stored audio file. It is recomputed on every
// request, never cached.
type Metadata struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	FileSize   int64   `json:"file_size"`
	Format     string  `json:"format"`
}

// Inspect decodes an uploaded file and reports its duration, layout,
// and size on disk. Duration is rounded to two decimals.
func (e *Engine) Inspect(filename string) (Metadata, error) {
	path := e.UploadPath(filename)
	buf, err := Decode(path)
	if err != nil {
		return Metadata{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	duration := float64(buf.Len()) / float64(buf.SampleRate())
	return Metadata{
		Duration:   math.Round(duration*100) / 100,
		SampleRate: buf.SampleRate(),
		Channels:   buf.Channels(),
		FileSize:   info.Size(),
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
	}, nil
}
