package scheduler

import (
	"encoding/json"
	"fmt"

	"reelqueue/internal/logging"
	"reelqueue/internal/task"
)

// Snapshot serializes the task collection as a stable, order-preserving
// flat JSON list.
func (q *Queue) Snapshot() ([]byte, error) {
	tasks := q.Tasks()
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot replaces the task collection with one decoded from a
// Snapshot payload.
func (q *Queue) RestoreSnapshot(data []byte) error {
	var tasks []*task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}
	q.Restore(tasks)
	return nil
}

// Restore replaces the task collection, preserving the given order. Any task
// found in processing status is an orphan of an unclean shutdown and is
// unconditionally reset to pending before readiness recomputation runs: no
// task is lost, and none resumes mid-flight. Duplicate natural keys keep the
// first occurrence.
func (q *Queue) Restore(tasks []*task.Task) {
	q.mu.Lock()
	q.tasks = nil
	q.inFlight = make(map[string]struct{})
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		key := t.NaturalKey()
		if _, dup := seen[key]; dup {
			q.logger.Warn("dropping duplicate task during restore",
				logging.String("subject", t.Subject),
				logging.String("type", string(t.Type)),
			)
			continue
		}
		seen[key] = struct{}{}
		if t.Status == task.StatusProcessing {
			t.Reset()
			q.emitStatusLocked(t)
		}
		q.tasks = append(q.tasks, t)
	}
	q.recomputeLocked()
	evts := q.drainLocked()
	q.mu.Unlock()
	q.publish(evts)
}
