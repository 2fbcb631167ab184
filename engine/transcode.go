package engine

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// QualityTier selects the delivery bitrate.
type QualityTier string

const (
	TierLow    QualityTier = "low"
	TierMedium QualityTier = "medium"
	TierHigh   QualityTier = "high"
)

var tierBitrate = map[QualityTier]string{
	TierLow:    "128k",
	TierMedium: "192k",
	TierHigh:   "320k",
}

// TranscodeToMP3 converts path to MP3 through the external ffmpeg
// bridge and returns the output path, which is the input path with an
// .mp3 extension. An empty tier means TierHigh.
func (e *Engine) TranscodeToMP3(path string, tier QualityTier) (string, error) {
	if tier == "" {
		tier = TierHigh
	}
	bitrate, ok := tierBitrate[tier]
	if !ok {
		return "", fmt.Errorf("%w: unknown quality tier %q", ErrInvalidParameter, tier)
	}

	ffmpeg, err := exec.LookPath(e.ffmpegPath)
	if err != nil {
		return "", fmt.Errorf("%w: ffmpeg not available at %q: %v", ErrEncode, e.ffmpegPath, err)
	}

	outPath := replaceExt(path, ".mp3")
	cmd := exec.Command(ffmpeg, "-y", "-i", path, "-c:a", "libmp3lame", "-b:a", bitrate, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrEncode, path, err, strings.TrimSpace(string(out)))
	}

	e.log.WithFields(logrus.Fields{
		"input":   path,
		"output":  outPath,
		"bitrate": bitrate,
	}).Info("transcoded to mp3")
	return outPath, nil
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsAny(path[i:], "/\\") {
		return path[:i] + ext
	}
	return path + ext
}
