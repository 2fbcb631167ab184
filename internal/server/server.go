// Package server exposes the engine over HTTP. Uploads land in the
// engine's upload directory; separation and effect jobs run on the
// task runner and are polled through /tasks/{id}; finished files are
// fetched from /download/{filename}.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lionsflute/audiofx/engine"
	"github.com/lionsflute/audiofx/internal/task"
)

// MaxUploadBytes caps the multipart upload body.
const MaxUploadBytes = 16 << 20

// allowedExtensions is the set of containers the decoder understands.
var allowedExtensions = map[string]bool{
	".wav":  true,
	".aiff": true,
	".aif":  true,
	".mp3":  true,
	".ogg":  true,
}

// Server routes API requests to the engine.
type Server struct {
	engine *engine.Engine
	store  *task.Store
	runner *task.Runner
	log    *logrus.Logger
	mux    *http.ServeMux
}

// New assembles the HTTP surface on top of an engine and task runner.
func New(eng *engine.Engine, store *task.Store, runner *task.Runner, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		engine: eng,
		store:  store,
		runner: runner,
		log:    log,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /", s.handleHome)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /split", s.handleSplit)
	s.mux.HandleFunc("POST /apply_fx", s.handleApplyFx)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleTask)
	s.mux.HandleFunc("GET /metadata/{filename}", s.handleMetadata)
	s.mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Error("response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps engine error kinds to HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidParameter),
		errors.Is(err, engine.ErrUnsupportedEffect),
		errors.Is(err, engine.ErrDecode):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).Error("engine call failed")
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// safeFilename rejects names that escape the storage directories.
func safeFilename(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) ||
		strings.HasPrefix(name, ".") || strings.ContainsAny(name, "\\") {
		return "", false
	}
	return name, true
}

func allowedUpload(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}
