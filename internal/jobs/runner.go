package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// TaskFailure records a background task that returned an error or panicked.
// Failures are kept in a bounded in-memory log so operators can inspect what
// went wrong in work that has no caller to report to.
type TaskFailure struct {
	Task       string    `json:"task"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// maxFailures bounds the in-memory dead-letter log
const maxFailures = 100

// Runner executes named background tasks. Tasks are fire-and-forget from the
// submitter's point of view, but errors and panics are captured in the
// failure log instead of being lost, and Wait drains in-flight tasks on
// shutdown.
type Runner struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	failures []TaskFailure
}

// NewRunner creates a background task runner
func NewRunner() *Runner {
	return &Runner{}
}

// Go submits a named task. The task gets its own context; it is never tied
// to any request lifecycle.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Background task %s panicked: %v", name, rec)
				r.record(name, fmt.Errorf("panic: %v", rec))
			}
		}()

		if err := fn(context.Background()); err != nil {
			log.Printf("Background task %s failed: %v", name, err)
			r.record(name, err)
		}
	}()
}

// record appends a failure, evicting the oldest entry once the log is full
func (r *Runner) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, TaskFailure{
		Task:       name,
		Error:      err.Error(),
		OccurredAt: time.Now(),
	})
	if len(r.failures) > maxFailures {
		r.failures = r.failures[len(r.failures)-maxFailures:]
	}
}

// Failures returns a copy of the recorded task failures, oldest first
func (r *Runner) Failures() []TaskFailure {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TaskFailure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Wait blocks until all submitted tasks have finished
func (r *Runner) Wait() {
	r.wg.Wait()
}
