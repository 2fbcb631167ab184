// Command demogen writes synthetic demo tracks into an upload
// directory for manual testing of separation and effects.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/engine"
	"github.com/lionsflute/audiofx/internal/demo"
)

func main() {
	var (
		outDir     = flag.String("out", "uploads", "output directory")
		sampleRate = flag.Int("rate", 44100, "sample rate in Hz")
	)
	flag.Parse()

	log := logrus.New()
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.WithError(err).Fatalf("create directory %s", *outDir)
	}

	write := func(name string, buf *buffer.Buffer, err error) {
		if err != nil {
			log.WithError(err).Fatalf("generate %s", name)
		}
		path := filepath.Join(*outDir, name)
		if err := engine.Encode(buf, path); err != nil {
			log.WithError(err).Fatalf("write %s", name)
		}
		log.WithFields(logrus.Fields{
			"path":     path,
			"duration": buf.Duration(),
			"rate":     buf.SampleRate(),
		}).Info("generated demo track")
	}

	short, err := demo.GenerateBandTrack(10, *sampleRate)
	write("demo_short.wav", short, err)

	medium, err := demo.GenerateBandTrack(30, *sampleRate)
	write("demo_medium.wav", medium, err)

	electronic, err := demo.GenerateElectronicTrack(20, *sampleRate)
	write("demo_electronic.wav", electronic, err)
}
