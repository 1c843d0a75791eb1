package scheduler

import (
	"context"
	"sort"

	"reelqueue/internal/events"
	"reelqueue/internal/logging"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// recomputeLocked reclassifies every pending or waiting task against the
// current sibling-task and artifact state. The sweep is global and
// idempotent: satisfying one task's dependency may unblock others
// transitively, and recomputing everything avoids maintaining reverse
// dependency edges. Skipped entirely while paused.
func (q *Queue) recomputeLocked() {
	if q.paused {
		return
	}
	for _, t := range q.tasks {
		switch t.Status {
		case task.StatusPending, task.StatusWaiting:
		default:
			continue
		}
		satisfied := q.dependenciesSatisfiedLocked(t)
		switch {
		case satisfied && t.Status == task.StatusWaiting:
			t.Status = task.StatusPending
			t.StatusMessage = ""
			q.emitReadinessLocked(t)
		case !satisfied && t.Status == task.StatusPending:
			t.Status = task.StatusWaiting
			t.StatusMessage = task.WaitingMessage
			q.emitReadinessLocked(t)
		}
	}
}

// dependenciesSatisfiedLocked checks every type-level prerequisite of t. A
// sibling task of the prerequisite type for the same subject must be
// completed; when no sibling exists, an already-present artifact satisfies
// the dependency instead.
func (q *Queue) dependenciesSatisfiedLocked(t *task.Task) bool {
	for _, dep := range tasktype.Dependencies(t.Type) {
		sibling := q.findSiblingLocked(t.Subject, dep)
		if sibling != nil {
			if sibling.Status != task.StatusCompleted {
				return false
			}
			continue
		}
		if !q.hasArtifactLocked(t.Subject, dep) {
			return false
		}
	}
	return true
}

func (q *Queue) emitReadinessLocked(t *task.Task) {
	q.emitLocked(events.Event{
		Kind:     events.KindReadinessChanged,
		TaskID:   t.ID,
		Subject:  t.Subject,
		TaskType: t.Type,
		Status:   t.Status,
		Message:  t.StatusMessage,
	})
}

// ReadyTasks returns up to (cap - in-flight) pending tasks in FIFO order by
// creation time, with insertion order breaking ties. It is a pure query: no
// state is mutated. The result is empty while paused or when no admission
// slots remain.
func (q *Queue) ReadyTasks() []task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused {
		return nil
	}
	slots := q.capacity - len(q.inFlight)
	if slots <= 0 {
		return nil
	}
	pending := make([]*task.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if t.Status == task.StatusPending {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > slots {
		pending = pending[:slots]
	}
	ready := make([]task.Task, len(pending))
	for i, t := range pending {
		ready[i] = *t.Clone()
	}
	return ready
}

// StartTask admits a pending task for execution: it joins the in-flight set
// and transitions to processing. Returns false when the task is unknown, not
// pending, the queue is paused, or no slots remain.
func (q *Queue) StartTask(id string) bool {
	q.mu.Lock()
	started := false
	if t := q.findLocked(id); t != nil && !q.paused && t.Status == task.StatusPending && len(q.inFlight) < q.capacity {
		q.inFlight[id] = struct{}{}
		t.MarkStarted()
		q.emitStatusLocked(t)
		started = true
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
	return started
}

// FinishTask removes a task from the in-flight set and recomputes readiness
// so dependents of a just-finished task become eligible.
func (q *Queue) FinishTask(id string) {
	q.mu.Lock()
	if _, ok := q.inFlight[id]; ok {
		delete(q.inFlight, id)
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}

// SetProgress records executor-reported progress on a processing task.
func (q *Queue) SetProgress(id string, value float64, message string) {
	q.mu.Lock()
	if t := q.findLocked(id); t != nil && t.Status == task.StatusProcessing {
		t.UpdateProgress(value, message)
		q.emitLocked(events.Event{
			Kind:     events.KindProgress,
			TaskID:   t.ID,
			Subject:  t.Subject,
			TaskType: t.Type,
			Status:   t.Status,
			Progress: t.Progress,
			Message:  t.StatusMessage,
		})
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}

// Complete marks a processing task completed, records the produced artifact,
// and auto-enqueues any follow-up tasks for the same subject. The task stays
// in the in-flight set until FinishTask is called.
func (q *Queue) Complete(id string) {
	q.mu.Lock()
	var completed *task.Task
	if t := q.findLocked(id); t != nil && t.Status == task.StatusProcessing {
		t.MarkCompleted()
		q.emitStatusLocked(t)
		completed = t
		for _, followUp := range t.FollowUps {
			next := task.New(t.Subject, followUp)
			if followUp == tasktype.TypeTranslate && len(t.TargetLocales) > 0 {
				next.TargetLocales = append([]string(nil), t.TargetLocales...)
			}
			q.addLocked(next)
		}
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)

	if completed != nil && q.recorder != nil {
		if err := q.recorder.RecordArtifact(context.Background(), completed.Subject, completed.Type); err != nil {
			q.logger.Warn("artifact record failed; future readiness checks will rely on sibling tasks",
				logging.String("subject", completed.Subject),
				logging.String("artifact", string(completed.Type)),
				logging.Error(err),
			)
		}
	}
}

// Fail marks a processing task failed with a human-readable message. The
// queue never retries automatically; retry is a caller-driven action.
func (q *Queue) Fail(id string, message string) {
	q.mu.Lock()
	if t := q.findLocked(id); t != nil && t.Status == task.StatusProcessing {
		t.MarkFailed(message)
		q.emitStatusLocked(t)
		q.recomputeLocked()
	}
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}
