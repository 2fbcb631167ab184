package task

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	s, err := NewStore(capacity, time.Minute)
	require.NoError(t, err)
	return s
}

func TestStoreLifecycle(t *testing.T) {
	s := newTestStore(t, 4)

	created, err := s.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, StatusPending, created.Status)

	s.Start(created.ID)
	s.SetProgress(created.ID, 40)
	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 40, got.Progress)

	s.Complete(created.ID, map[string]string{"output": "a.wav"})
	got, ok = s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "a.wav", got.Result["output"])

	// Terminal tasks do not mutate further.
	s.Fail(created.ID, "late failure")
	got, _ = s.Get(created.ID)
	assert.Equal(t, StatusDone, got.Status)
	assert.Empty(t, got.Error)
}

func TestStoreUnknownID(t *testing.T) {
	s := newTestStore(t, 1)
	_, ok := s.Get("nope")
	assert.False(t, ok)

	// Mutations on unknown IDs are no-ops.
	s.Start("nope")
	s.Complete("nope", nil)
	assert.Equal(t, 0, s.Len())
}

func TestStoreProgressClamped(t *testing.T) {
	s := newTestStore(t, 1)
	created, err := s.Create()
	require.NoError(t, err)
	s.Start(created.ID)

	s.SetProgress(created.ID, -5)
	got, _ := s.Get(created.ID)
	assert.Equal(t, 0, got.Progress)

	s.SetProgress(created.ID, 250)
	got, _ = s.Get(created.ID)
	assert.Equal(t, 100, got.Progress)
}

func TestStoreCapacityEvictsFinishedFirst(t *testing.T) {
	s := newTestStore(t, 2)

	first, err := s.Create()
	require.NoError(t, err)
	s.Start(first.ID)
	s.Complete(first.ID, nil)

	second, err := s.Create()
	require.NoError(t, err)
	s.Start(second.ID)

	// Store is full; the finished task is evicted for the newcomer.
	third, err := s.Create()
	require.NoError(t, err)

	_, ok := s.Get(first.ID)
	assert.False(t, ok, "finished task should be evicted")
	_, ok = s.Get(second.ID)
	assert.True(t, ok, "running task must survive")
	_, ok = s.Get(third.ID)
	assert.True(t, ok)
}

func TestStoreFullWithLiveTasks(t *testing.T) {
	s := newTestStore(t, 2)
	for i := 0; i < 2; i++ {
		created, err := s.Create()
		require.NoError(t, err)
		s.Start(created.ID)
	}

	_, err := s.Create()
	assert.ErrorIs(t, err, ErrStoreFull)
}

func TestStoreSweepExpiresFinished(t *testing.T) {
	s := newTestStore(t, 4)
	clock := time.Now()
	s.now = func() time.Time { return clock }

	done, err := s.Create()
	require.NoError(t, err)
	s.Start(done.ID)
	s.Complete(done.ID, nil)

	running, err := s.Create()
	require.NoError(t, err)
	s.Start(running.ID)

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	_, ok := s.Get(done.ID)
	assert.False(t, ok)
	_, ok = s.Get(running.ID)
	assert.True(t, ok, "live tasks never expire")
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunnerExecutesJobs(t *testing.T) {
	s := newTestStore(t, 8)
	r, err := NewRunner(s, 2, quietLogger())
	require.NoError(t, err)

	id, err := r.Submit(func(progress func(int)) (map[string]string, error) {
		progress(50)
		return map[string]string{"output": "done.wav"}, nil
	})
	require.NoError(t, err)

	r.Close()

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "done.wav", got.Result["output"])
}

func TestRunnerRecordsFailure(t *testing.T) {
	s := newTestStore(t, 8)
	r, err := NewRunner(s, 1, quietLogger())
	require.NoError(t, err)

	id, err := r.Submit(func(progress func(int)) (map[string]string, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	r.Close()

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	s := newTestStore(t, 8)
	r, err := NewRunner(s, 1, quietLogger())
	require.NoError(t, err)
	r.Close()

	_, err = r.Submit(func(func(int)) (map[string]string, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestRunnerSubmitDoesNotBlockWhenSaturated(t *testing.T) {
	s := newTestStore(t, 64)
	r, err := NewRunner(s, 1, quietLogger())
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{}, 16)
	blocker := func(func(int)) (map[string]string, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	}

	// Occupy the single worker, then fill the queue behind it.
	_, err = r.Submit(blocker)
	require.NoError(t, err)
	<-started

	var accepted []string
	var full error
	for i := 0; i < 16; i++ {
		id, err := r.Submit(blocker)
		if err != nil {
			full = err
			break
		}
		accepted = append(accepted, id)
	}
	require.ErrorIs(t, full, ErrQueueFull, "saturated runner must reject, not block")
	assert.Len(t, accepted, 4, "queue depth for one worker")

	// The runner stays usable: further submits still return instead
	// of hanging on the queue.
	_, err = r.Submit(blocker)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	r.Close()

	// Everything that was accepted ran to completion.
	for _, id := range accepted {
		got, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, StatusDone, got.Status)
	}
}

func TestRunnerConcurrentSubmits(t *testing.T) {
	s := newTestStore(t, 64)
	r, err := NewRunner(s, 4, quietLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, err := r.Submit(func(progress func(int)) (map[string]string, error) {
				return map[string]string{"n": fmt.Sprint(n)}, nil
			})
			if err == nil {
				ids <- id
			}
		}(i)
	}
	wg.Wait()
	close(ids)
	r.Close()

	for id := range ids {
		got, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, StatusDone, got.Status)
	}
}
