package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/internal/task"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "audiofx server running"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(formats)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "running",
		"supported_formats": formats,
		"max_file_size_mb":  MaxUploadBytes / (1 << 20),
		"tracked_tasks":     s.store.Len(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file too large, maximum size is %d MB", MaxUploadBytes/(1<<20)))
			return
		}
		s.writeError(w, http.StatusBadRequest, "no file part in request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file part in request")
		return
	}
	defer file.Close()

	name, ok := safeFilename(header.Filename)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if !allowedUpload(name) {
		s.writeError(w, http.StatusBadRequest, "file type not allowed, supported formats: wav, aiff, mp3, ogg")
		return
	}

	dst, err := os.Create(s.engine.UploadPath(name))
	if err != nil {
		s.log.WithError(err).Error("upload create failed")
		s.writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer dst.Close()
	size, err := io.Copy(dst, file)
	if err != nil {
		s.log.WithError(err).Error("upload write failed")
		s.writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	s.log.WithFields(logrus.Fields{"filename": name, "size": size}).Info("file uploaded")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":  "file uploaded successfully",
		"filename": name,
		"size":     size,
	})
}

type splitRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename required in request body")
		return
	}
	name, ok := safeFilename(req.Filename)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if _, err := os.Stat(s.engine.UploadPath(name)); err != nil {
		s.writeError(w, http.StatusNotFound, "file not found: "+name)
		return
	}

	id, err := s.runner.Submit(func(progress func(int)) (map[string]string, error) {
		progress(10)
		vocals, instruments, err := s.engine.SeparateTrack(name)
		if err != nil {
			return nil, err
		}
		progress(90)
		return map[string]string{
			"vocals":      filepath.Base(vocals),
			"instruments": filepath.Base(instruments),
			"original":    name,
		}, nil
	})
	if err != nil {
		s.writeRunnerError(w, err)
		return
	}

	s.log.WithFields(logrus.Fields{"filename": name, "task": id}).Info("split queued")
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "audio split queued",
		"task_id": id,
	})
}

// supportedEffects mirrors the dispatcher's catalog so bad names are
// rejected before a task is created.
var supportedEffects = map[string]bool{
	"reverb":     true,
	"echo":       true,
	"chorus":     true,
	"distortion": true,
	"compressor": true,
	"equalizer":  true,
	"delay":      true,
}

type applyFxRequest struct {
	Filename  string   `json:"filename"`
	Effect    string   `json:"effect"`
	Intensity *float64 `json:"intensity"`
}

func (s *Server) handleApplyFx(w http.ResponseWriter, r *http.Request) {
	var req applyFxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "JSON data required")
		return
	}
	if req.Effect == "" {
		s.writeError(w, http.StatusBadRequest, "effect name required")
		return
	}
	if req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename required")
		return
	}
	name, ok := safeFilename(req.Filename)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	if _, err := os.Stat(s.engine.UploadPath(name)); err != nil {
		s.writeError(w, http.StatusNotFound, "file not found: "+name)
		return
	}

	intensity := 50.0
	if req.Intensity != nil {
		intensity = *req.Intensity
	}
	if intensity < 0 || intensity > 100 {
		s.writeError(w, http.StatusBadRequest, "intensity must be in [0, 100]")
		return
	}
	effect := strings.ToLower(req.Effect)
	if !supportedEffects[effect] {
		s.writeError(w, http.StatusBadRequest,
			"effect not supported, available: reverb, echo, chorus, distortion, compressor, equalizer, delay")
		return
	}

	id, err := s.runner.Submit(func(progress func(int)) (map[string]string, error) {
		progress(10)
		outPath, err := s.engine.ApplyEffect(name, effect, intensity)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"output_file": filepath.Base(outPath),
			"effect":      effect,
			"original":    name,
		}, nil
	})
	if err != nil {
		s.writeRunnerError(w, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"filename":  name,
		"effect":    effect,
		"intensity": intensity,
		"task":      id,
	}).Info("effect queued")
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "effect application queued",
		"task_id": id,
	})
}

func (s *Server) writeRunnerError(w http.ResponseWriter, err error) {
	if errors.Is(err, task.ErrStoreFull) || errors.Is(err, task.ErrQueueFull) {
		s.writeError(w, http.StatusServiceUnavailable, "too many pending tasks")
		return
	}
	s.log.WithError(err).Error("task submit failed")
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	name, ok := safeFilename(r.PathValue("filename"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	meta, err := s.engine.Inspect(name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, ok := safeFilename(r.PathValue("filename"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	path := s.engine.ProcessedPath(name)
	if _, err := os.Stat(path); err != nil {
		s.writeError(w, http.StatusNotFound, "file not found: "+name)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, r, path)
}
