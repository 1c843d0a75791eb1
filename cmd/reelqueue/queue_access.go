package main

import (
	"context"

	"reelqueue/internal/ipc"
	"reelqueue/internal/scheduler"
	"reelqueue/internal/task"
)

// queueAccess abstracts the two ways commands reach the queue: RPC against
// the running daemon, or the persisted snapshot when no daemon is up.
type queueAccess interface {
	Tasks(ctx context.Context) ([]task.Task, error)
	Stats(ctx context.Context) (map[task.Status]int, error)
	Add(ctx context.Context, t *task.Task) (task.Task, bool, error)
	Retry(ctx context.Context, id string) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	ClearCompleted(ctx context.Context) (int, error)
	ClearFailed(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) (int, error)
}

// --- live daemon ---

type daemonQueue struct {
	client *ipc.Client
}

func (d *daemonQueue) Tasks(context.Context) ([]task.Task, error) {
	resp, err := d.client.List()
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (d *daemonQueue) Stats(context.Context) (map[task.Status]int, error) {
	resp, err := d.client.Status()
	if err != nil {
		return nil, err
	}
	stats := make(map[task.Status]int, len(resp.TaskCounts))
	for status, count := range resp.TaskCounts {
		stats[task.Status(status)] = count
	}
	return stats, nil
}

func (d *daemonQueue) Add(_ context.Context, t *task.Task) (task.Task, bool, error) {
	resp, err := d.client.Add(*t)
	if err != nil {
		return task.Task{}, false, err
	}
	return resp.Task, resp.Added, nil
}

func (d *daemonQueue) Retry(_ context.Context, id string) (bool, error) {
	resp, err := d.client.Retry(id)
	if err != nil {
		return false, err
	}
	return resp.Retried, nil
}

func (d *daemonQueue) Cancel(_ context.Context, id string) (bool, error) {
	resp, err := d.client.Cancel(id)
	if err != nil {
		return false, err
	}
	return resp.Cancelled, nil
}

func (d *daemonQueue) Remove(_ context.Context, id string) (bool, error) {
	resp, err := d.client.Remove(id)
	if err != nil {
		return false, err
	}
	return resp.Removed, nil
}

func (d *daemonQueue) ClearCompleted(_ context.Context) (int, error) {
	return d.clear(ipc.ClearCompleted)
}

func (d *daemonQueue) ClearFailed(_ context.Context) (int, error) {
	return d.clear(ipc.ClearFailed)
}

func (d *daemonQueue) ClearAll(_ context.Context) (int, error) {
	return d.clear(ipc.ClearAll)
}

func (d *daemonQueue) clear(scope string) (int, error) {
	resp, err := d.client.Clear(scope)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// --- persisted snapshot ---

type snapshotQueue struct {
	queue   *scheduler.Queue
	changed bool
}

func (s *snapshotQueue) Tasks(context.Context) ([]task.Task, error) {
	return s.queue.Tasks(), nil
}

func (s *snapshotQueue) Stats(context.Context) (map[task.Status]int, error) {
	return s.queue.Stats(), nil
}

func (s *snapshotQueue) Add(_ context.Context, t *task.Task) (task.Task, bool, error) {
	if !s.queue.Add(t) {
		return task.Task{}, false, nil
	}
	s.changed = true
	added, _ := s.queue.Get(t.ID)
	return added, true, nil
}

func (s *snapshotQueue) Retry(_ context.Context, id string) (bool, error) {
	return s.mutated(s.queue.Retry(id)), nil
}

func (s *snapshotQueue) Cancel(_ context.Context, id string) (bool, error) {
	return s.mutated(s.queue.Cancel(id)), nil
}

func (s *snapshotQueue) Remove(_ context.Context, id string) (bool, error) {
	return s.mutated(s.queue.Remove(id)), nil
}

func (s *snapshotQueue) ClearCompleted(context.Context) (int, error) {
	return s.cleared(s.queue.ClearCompleted()), nil
}

func (s *snapshotQueue) ClearFailed(context.Context) (int, error) {
	return s.cleared(s.queue.ClearFailed()), nil
}

func (s *snapshotQueue) ClearAll(context.Context) (int, error) {
	return s.cleared(s.queue.ClearAll()), nil
}

func (s *snapshotQueue) mutated(ok bool) bool {
	if ok {
		s.changed = true
	}
	return ok
}

func (s *snapshotQueue) cleared(removed int) int {
	if removed > 0 {
		s.changed = true
	}
	return removed
}
