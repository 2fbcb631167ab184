// Command audiofxd serves the audio processing API: uploads,
// separation, effects, metadata, and downloads.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/engine"
	"github.com/lionsflute/audiofx/internal/server"
	"github.com/lionsflute/audiofx/internal/task"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		uploadDir    = flag.String("upload-dir", "uploads", "directory for uploaded files")
		processedDir = flag.String("processed-dir", "processed", "directory for generated files")
		ffmpegPath   = flag.String("ffmpeg", "ffmpeg", "ffmpeg binary for delivery transcoding")
		workers      = flag.Int("workers", 2, "background worker count")
		taskCapacity = flag.Int("task-capacity", 256, "maximum tracked tasks")
		taskTTL      = flag.Duration("task-ttl", time.Hour, "retention for finished tasks")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	for _, dir := range []string{*uploadDir, *processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.WithError(err).Fatalf("create directory %s", dir)
		}
	}

	eng, err := engine.New(*uploadDir, *processedDir,
		engine.WithFFmpegPath(*ffmpegPath),
		engine.WithLogger(log),
	)
	if err != nil {
		log.WithError(err).Fatal("engine init")
	}

	store, err := task.NewStore(*taskCapacity, *taskTTL)
	if err != nil {
		log.WithError(err).Fatal("task store init")
	}
	runner, err := task.NewRunner(store, *workers, log)
	if err != nil {
		log.WithError(err).Fatal("task runner init")
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(eng, store, runner, log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", *addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	runner.Close()
}
