// Package task tracks background jobs for the HTTP layer. A bounded
// in-memory store holds per-task status and progress, and a small
// worker pool runs the engine calls that produce results.
package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// terminal reports whether a status can no longer change.
func (s Status) terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ErrStoreFull is returned when the store is at capacity and every
// held task is still in flight.
var ErrStoreFull = errors.New("task store full")

// Task is a snapshot of one tracked job.
type Task struct {
	ID        string            `json:"id"`
	Status    Status            `json:"status"`
	Progress  int               `json:"progress"`
	Result    map[string]string `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is a bounded, swept task table. Finished tasks older than the
// TTL are removed on every mutation; live tasks are never evicted.
type Store struct {
	mu       sync.RWMutex
	tasks    map[string]*Task
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store holding at most capacity tasks, dropping
// finished ones ttl after their last update.
func NewStore(capacity int, ttl time.Duration) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("store capacity must be >= 1, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("store ttl must be positive, got %v", ttl)
	}
	return &Store{
		tasks:    make(map[string]*Task),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Create registers a new pending task and returns its snapshot.
func (s *Store) Create() (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	if len(s.tasks) >= s.capacity && !s.evictOldestFinishedLocked() {
		return Task{}, ErrStoreFull
	}

	now := s.now()
	t := &Task{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[t.ID] = t
	return *t, nil
}

// Get returns a snapshot of the task, if present.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return cloneTask(t), true
}

// Start moves a pending task to running.
func (s *Store) Start(id string) {
	s.update(id, func(t *Task) {
		t.Status = StatusRunning
	})
}

// SetProgress records completion percentage for a running task.
func (s *Store) SetProgress(id string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.update(id, func(t *Task) {
		t.Progress = progress
	})
}

// Complete marks the task done and attaches its result.
func (s *Store) Complete(id string, result map[string]string) {
	s.update(id, func(t *Task) {
		t.Status = StatusDone
		t.Progress = 100
		t.Result = result
	})
}

// Fail marks the task failed with a message.
func (s *Store) Fail(id string, message string) {
	s.update(id, func(t *Task) {
		t.Status = StatusFailed
		t.Error = message
	})
}

// Len returns the number of held tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Sweep drops expired finished tasks and returns how many were
// removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) update(id string, fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.Status.terminal() {
		return
	}
	fn(t)
	t.UpdatedAt = s.now()
	s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, t := range s.tasks {
		if t.Status.terminal() && t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// evictOldestFinishedLocked frees one slot by dropping the oldest
// terminal task, even if it has not expired yet.
func (s *Store) evictOldestFinishedLocked() bool {
	var oldest *Task
	for _, t := range s.tasks {
		if !t.Status.terminal() {
			continue
		}
		if oldest == nil || t.UpdatedAt.Before(oldest.UpdatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.tasks, oldest.ID)
	return true
}

func cloneTask(t *Task) Task {
	out := *t
	if t.Result != nil {
		out.Result = make(map[string]string, len(t.Result))
		for k, v := range t.Result {
			out.Result[k] = v
		}
	}
	return out
}
