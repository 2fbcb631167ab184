package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lionsflute/audiofx/dsp/buffer"
	"github.com/lionsflute/audiofx/dsp/signal"
	"github.com/lionsflute/audiofx/engine"
	"github.com/lionsflute/audiofx/internal/task"
)

type fixture struct {
	server *Server
	engine *engine.Engine
	store  *task.Store
	runner *task.Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng, err := engine.New(t.TempDir(), t.TempDir(), engine.WithReverbSeed(1))
	require.NoError(t, err)
	store, err := task.NewStore(32, time.Minute)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	runner, err := task.NewRunner(store, 2, log)
	require.NoError(t, err)
	t.Cleanup(runner.Close)

	return &fixture{
		server: New(eng, store, runner, log),
		engine: eng,
		store:  store,
		runner: runner,
	}
}

// uploadTone writes a short sine directly into the upload directory.
func (f *fixture) uploadTone(t *testing.T, name string) {
	t.Helper()
	gen, err := signal.NewGenerator(8000)
	require.NoError(t, err)
	data, err := gen.Sine(440, 0.5, 8000)
	require.NoError(t, err)
	buf, err := buffer.FromMono(data, 8000)
	require.NoError(t, err)
	require.NoError(t, engine.Encode(buf, f.engine.UploadPath(name)))
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

// waitTask polls until the task reaches a terminal state.
func (f *fixture) waitTask(t *testing.T, id string) task.Task {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, ok := f.store.Get(id)
		require.True(t, ok, "task %s disappeared", id)
		if got.Status == task.StatusDone || got.Status == task.StatusFailed {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", id)
	return task.Task{}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHomeAndStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "running", payload["status"])
	assert.Contains(t, payload["supported_formats"], "wav")
}

func TestUploadRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "source.wav")
	raw, err := os.ReadFile(f.engine.UploadPath("source.wav"))
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "tone.wav")
	require.NoError(t, err)
	_, err = fw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	assert.Equal(t, "tone.wav", payload["filename"])
	assert.FileExists(t, f.engine.UploadPath("tone.wav"))
}

func TestUploadRejectsUnknownType(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadWithoutFilePart(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/upload", map[string]string{"x": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSplitFlow(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodPost, "/split", map[string]string{"filename": "song.wav"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["task_id"].(string)

	done := f.waitTask(t, id)
	require.Equal(t, task.StatusDone, done.Status, done.Error)
	assert.Equal(t, "song_vocals.wav", done.Result["vocals"])
	assert.Equal(t, "song_instruments.wav", done.Result["instruments"])
	assert.FileExists(t, f.engine.ProcessedPath("song_vocals.wav"))

	// The finished stem must be downloadable.
	rec = f.do(t, http.MethodGet, "/download/song_vocals.wav", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSplitMissingFile(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/split", map[string]string{"filename": "missing.wav"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSplitRequiresFilename(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/split", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyFxFlow(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodPost, "/apply_fx", map[string]any{
		"filename":  "song.wav",
		"effect":    "echo",
		"intensity": 75,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["task_id"].(string)

	done := f.waitTask(t, id)
	require.Equal(t, task.StatusDone, done.Status, done.Error)
	assert.Equal(t, "song_echo_75.wav", done.Result["output_file"])
	assert.FileExists(t, f.engine.ProcessedPath("song_echo_75.wav"))
}

func TestApplyFxDefaultsIntensity(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodPost, "/apply_fx", map[string]any{
		"filename": "song.wav",
		"effect":   "distortion",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["task_id"].(string)

	done := f.waitTask(t, id)
	require.Equal(t, task.StatusDone, done.Status, done.Error)
	assert.Equal(t, "song_distortion_50.wav", done.Result["output_file"])
}

func TestApplyFxUnknownEffectRejected(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodPost, "/apply_fx", map[string]any{
		"filename": "song.wav",
		"effect":   "flanger",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "not supported")
}

func TestApplyFxValidation(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodPost, "/apply_fx", map[string]any{"effect": "echo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/apply_fx", map[string]any{"filename": "song.wav"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/apply_fx", map[string]any{
		"filename": "song.wav", "effect": "echo", "intensity": 150,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskEndpoints(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/tasks/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetadataEndpoint(t *testing.T) {
	f := newFixture(t)
	f.uploadTone(t, "song.wav")

	rec := f.do(t, http.MethodGet, "/metadata/song.wav", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	assert.Equal(t, float64(8000), payload["sample_rate"])
	assert.Equal(t, float64(1), payload["channels"])
	assert.Equal(t, "wav", payload["format"])

	rec = f.do(t, http.MethodGet, "/metadata/absent.wav", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadRejectsTraversal(t *testing.T) {
	f := newFixture(t)

	// Plant a file outside the processed directory.
	outside := filepath.Join(filepath.Dir(f.engine.ProcessedPath("x")), "..", "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/download/..%2Fsecret.txt", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestDownloadMissingFile(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/download/absent.wav", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
