package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"reelqueue/internal/availability"
	"reelqueue/internal/events"
	"reelqueue/internal/logging"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// DefaultConcurrency is the concurrency cap used when none is configured.
const DefaultConcurrency = 2

// Queue is the background processing scheduler. It owns the full task
// collection, the in-flight set, and the pause flag. The concurrency cap is
// fixed at construction; changing it requires rebuilding the Queue.
type Queue struct {
	mu       sync.Mutex
	tasks    []*task.Task
	inFlight map[string]struct{}
	capacity int
	paused   bool
	pending  []events.Event

	provider availability.Provider
	recorder availability.Recorder
	hub      *events.Hub
	logger   *slog.Logger
}

// Option configures optional Queue collaborators.
type Option func(*Queue)

// WithAvailability sets the subject-availability provider consulted during
// readiness recomputation.
func WithAvailability(p availability.Provider) Option {
	return func(q *Queue) {
		if p != nil {
			q.provider = p
		}
	}
}

// WithRecorder sets the artifact recorder invoked when tasks complete.
func WithRecorder(r availability.Recorder) Option {
	return func(q *Queue) { q.recorder = r }
}

// WithEvents sets the hub receiving scheduler lifecycle events.
func WithEvents(hub *events.Hub) Option {
	return func(q *Queue) { q.hub = hub }
}

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New constructs a Queue with the given concurrency cap.
func New(capacity int, opts ...Option) *Queue {
	if capacity <= 0 {
		capacity = DefaultConcurrency
	}
	q := &Queue{
		inFlight: make(map[string]struct{}),
		capacity: capacity,
		provider: availability.Unavailable{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add enqueues a task. A task whose natural key matches one already in the
// collection is silently rejected; this is the deduplication invariant.
func (q *Queue) Add(t *task.Task) bool {
	if t == nil {
		return false
	}
	q.mu.Lock()
	ok := q.addLocked(t)
	if ok {
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return ok
}

// AddAll enqueues multiple tasks and returns how many were accepted.
func (q *Queue) AddAll(tasks []*task.Task) int {
	q.mu.Lock()
	accepted := 0
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if q.addLocked(t) {
			accepted++
		}
	}
	if accepted > 0 {
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return accepted
}

// Remove deletes a task from the collection. Removing an in-flight task
// also drops it from the in-flight set; stopping the actual work is the
// executor's responsibility.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	removed := false
	for i, t := range q.tasks {
		if t.ID != id {
			continue
		}
		q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
		delete(q.inFlight, id)
		q.emitLocked(events.Event{Kind: events.KindTaskRemoved, TaskID: t.ID, Subject: t.Subject, TaskType: t.Type, Status: t.Status})
		removed = true
		break
	}
	if removed {
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return removed
}

// Cancel marks a task cancelled. A processing task leaves the in-flight set
// immediately; aborting its work is cooperative and up to the executor.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	cancelled := false
	if t := q.findLocked(id); t != nil {
		before := t.Status
		t.MarkCancelled()
		if t.Status == task.StatusCancelled && before != task.StatusCancelled {
			delete(q.inFlight, id)
			q.emitStatusLocked(t)
			q.recomputeLocked()
			cancelled = true
		}
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return cancelled
}

// Retry returns a failed or cancelled task to pending. Any other state is a
// no-op; completed tasks must be re-enqueued instead.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	retried := false
	if t := q.findLocked(id); t != nil {
		switch t.Status {
		case task.StatusFailed, task.StatusCancelled:
			t.Reset()
			q.emitStatusLocked(t)
			q.recomputeLocked()
			retried = true
		}
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return retried
}

// ClearCompleted removes all completed tasks and returns the count.
func (q *Queue) ClearCompleted() int {
	return q.clearByStatus(task.StatusCompleted)
}

// ClearFailed removes all failed tasks and returns the count.
func (q *Queue) ClearFailed() int {
	return q.clearByStatus(task.StatusFailed)
}

// ClearAll force-cancels every in-flight task and empties the collection.
func (q *Queue) ClearAll() int {
	q.mu.Lock()
	for id := range q.inFlight {
		if t := q.findLocked(id); t != nil {
			t.MarkCancelled()
			q.emitStatusLocked(t)
		}
	}
	removed := len(q.tasks)
	q.tasks = nil
	q.inFlight = make(map[string]struct{})
	q.emitLocked(events.Event{Kind: events.KindQueueCleared})
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return removed
}

// Pause freezes readiness recomputation and empties ReadyTasks. In-flight
// work is not cancelled.
func (q *Queue) Pause() {
	q.mu.Lock()
	if !q.paused {
		q.paused = true
		q.emitLocked(events.Event{Kind: events.KindQueuePaused})
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}

// Resume re-enables scheduling and immediately recomputes readiness.
func (q *Queue) Resume() {
	q.mu.Lock()
	if q.paused {
		q.paused = false
		q.emitLocked(events.Event{Kind: events.KindQueueResumed})
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}

// Paused reports whether scheduling is paused.
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Capacity returns the concurrency cap.
func (q *Queue) Capacity() int {
	return q.capacity
}

// InFlightCount returns the number of tasks currently admitted for
// execution.
func (q *Queue) InFlightCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// Get returns a copy of the task with the given id.
func (q *Queue) Get(id string) (task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t := q.findLocked(id); t != nil {
		return *t.Clone(), true
	}
	return task.Task{}, false
}

// Tasks returns copies of all tasks in insertion order.
func (q *Queue) Tasks() []task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]task.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, *t.Clone())
	}
	return out
}

// Stats returns a count of tasks grouped by status.
func (q *Queue) Stats() map[task.Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := make(map[task.Status]int)
	for _, t := range q.tasks {
		stats[t.Status]++
	}
	return stats
}

func (q *Queue) clearByStatus(status task.Status) int {
	q.mu.Lock()
	kept := q.tasks[:0]
	removed := 0
	for _, t := range q.tasks {
		if t.Status == status {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	q.tasks = kept
	if removed > 0 {
		q.emitLocked(events.Event{Kind: events.KindQueueCleared, Status: status})
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return removed
}

func (q *Queue) addLocked(t *task.Task) bool {
	if q.findByKeyLocked(t.NaturalKey()) != nil {
		return false
	}
	q.tasks = append(q.tasks, t)
	q.emitLocked(events.Event{Kind: events.KindTaskAdded, TaskID: t.ID, Subject: t.Subject, TaskType: t.Type, Status: t.Status})
	return true
}

func (q *Queue) findLocked(id string) *task.Task {
	for _, t := range q.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (q *Queue) findByKeyLocked(key string) *task.Task {
	for _, t := range q.tasks {
		if t.NaturalKey() == key {
			return t
		}
	}
	return nil
}

func (q *Queue) findSiblingLocked(subject string, kind tasktype.Type) *task.Task {
	return q.findByKeyLocked(task.NaturalKey(subject, kind))
}

func (q *Queue) emitLocked(evt events.Event) {
	q.pending = append(q.pending, evt)
}

func (q *Queue) emitStatusLocked(t *task.Task) {
	q.emitLocked(events.Event{
		Kind:     events.KindStatusChanged,
		TaskID:   t.ID,
		Subject:  t.Subject,
		TaskType: t.Type,
		Status:   t.Status,
		Progress: t.Progress,
		Message:  t.StatusMessage,
	})
}

func (q *Queue) drainLocked() []events.Event {
	evts := q.pending
	q.pending = nil
	return evts
}

// publish fans queued events out after the queue lock is released so sinks
// can call back into the queue.
func (q *Queue) publish(evts []events.Event) {
	for _, evt := range evts {
		q.hub.Publish(evt)
	}
}

func (q *Queue) hasArtifactLocked(subject string, kind tasktype.Type) bool {
	available, err := q.provider.HasArtifact(context.Background(), subject, kind)
	if err != nil {
		q.logger.Warn("availability lookup failed; treating dependency as unsatisfied",
			logging.String("subject", subject),
			logging.String("artifact", string(kind)),
			logging.Error(err),
		)
		return false
	}
	return available
}
