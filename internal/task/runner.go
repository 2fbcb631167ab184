package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned when every worker is busy and the job
// queue has no free slot.
var ErrQueueFull = errors.New("task queue full")

// Job is the unit of background work. It reports progress through the
// callback and returns a result map on success.
type Job func(progress func(int)) (map[string]string, error)

type queued struct {
	id  string
	job Job
}

// Runner executes jobs on a fixed pool of worker goroutines and
// records their lifecycle in the store.
type Runner struct {
	store *Store
	jobs  chan queued
	wg    sync.WaitGroup
	log   *logrus.Logger

	mu     sync.Mutex
	closed bool
}

// NewRunner starts workers goroutines draining the job queue.
func NewRunner(store *Store, workers int, log *logrus.Logger) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("runner requires a store")
	}
	if workers < 1 {
		return nil, fmt.Errorf("runner workers must be >= 1, got %d", workers)
	}
	if log == nil {
		log = logrus.New()
	}

	r := &Runner{
		store: store,
		jobs:  make(chan queued, workers*4),
		log:   log,
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.work()
	}
	return r, nil
}

// Submit registers a task and queues the job. It returns the task ID
// immediately; callers poll the store for completion. The enqueue
// never blocks: when the queue is full the task is failed and
// ErrQueueFull returned, so a slow worker pool cannot stall callers
// or Close.
func (r *Runner) Submit(job Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", fmt.Errorf("runner is closed")
	}

	t, err := r.store.Create()
	if err != nil {
		return "", err
	}
	select {
	case r.jobs <- queued{id: t.ID, job: job}:
		return t.ID, nil
	default:
		r.store.Fail(t.ID, "queue full")
		return "", ErrQueueFull
	}
}

// Close stops accepting jobs and waits for in-flight work to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) work() {
	defer r.wg.Done()
	for q := range r.jobs {
		r.store.Start(q.id)
		result, err := q.job(func(p int) {
			r.store.SetProgress(q.id, p)
		})
		if err != nil {
			r.store.Fail(q.id, err.Error())
			r.log.WithFields(logrus.Fields{
				"task": q.id,
			}).WithError(err).Error("task failed")
			continue
		}
		r.store.Complete(q.id, result)
		r.log.WithFields(logrus.Fields{
			"task": q.id,
		}).Info("task finished")
	}
}
