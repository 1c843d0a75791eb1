package executor_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelqueue/internal/executor"
	"reelqueue/internal/scheduler"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestExecutorRunsReadyTasks(t *testing.T) {
	q := scheduler.New(2)
	exec := executor.New(q, 10*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			progress(0.5, "halfway")
			return nil
		},
	))

	tk := task.New("video-1", tasktype.TypeImport)
	q.Add(tk)

	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exec.Stop()

	waitFor(t, 2*time.Second, func() bool {
		got, _ := q.Get(tk.ID)
		return got.Status == task.StatusCompleted
	})
	got, _ := q.Get(tk.ID)
	if got.Progress != 1 {
		t.Fatalf("completed progress = %v", got.Progress)
	}
	if q.InFlightCount() != 0 {
		t.Fatalf("in-flight not drained: %d", q.InFlightCount())
	}
}

func TestExecutorHonorsConcurrencyCap(t *testing.T) {
	q := scheduler.New(2)
	var active, peak int64
	release := make(chan struct{})

	exec := executor.New(q, 5*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			current := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
					break
				}
			}
			<-release
			atomic.AddInt64(&active, -1)
			return nil
		},
	))

	q.AddAll([]*task.Task{
		task.New("video-1", tasktype.TypeImport),
		task.New("video-2", tasktype.TypeImport),
		task.New("video-3", tasktype.TypeImport),
	})

	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&active) == 2 })
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&peak); got != 2 {
		t.Fatalf("peak concurrency = %d, want 2", got)
	}

	close(release)
	waitFor(t, 2*time.Second, func() bool {
		stats := q.Stats()
		return stats[task.StatusCompleted] == 3
	})
	exec.Stop()
}

func TestExecutorRunsDependentsInOrder(t *testing.T) {
	q := scheduler.New(2)
	var mu sync.Mutex
	var order []tasktype.Type
	record := func(tt tasktype.Type) {
		mu.Lock()
		order = append(order, tt)
		mu.Unlock()
	}

	exec := executor.New(q, 5*time.Millisecond, nil)
	for _, tt := range []tasktype.Type{tasktype.TypeDownload, tasktype.TypeTranscribe, tasktype.TypeTranslate} {
		tt := tt
		exec.Register(tt, executor.RunnerFunc(
			func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
				record(tt)
				return nil
			},
		))
	}

	q.AddAll([]*task.Task{
		task.New("video-1", tasktype.TypeTranslate),
		task.New("video-1", tasktype.TypeTranscribe),
		task.New("video-1", tasktype.TypeDownload),
	})

	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exec.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return q.Stats()[task.StatusCompleted] == 3
	})

	mu.Lock()
	defer mu.Unlock()
	want := []tasktype.Type{tasktype.TypeDownload, tasktype.TypeTranscribe, tasktype.TypeTranslate}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order %v, want %v", order, want)
		}
	}
}

func TestExecutorRecordsFailures(t *testing.T) {
	q := scheduler.New(1)
	exec := executor.New(q, 5*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			return errors.New("codec not supported")
		},
	))

	tk := task.New("video-1", tasktype.TypeImport)
	q.Add(tk)
	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exec.Stop()

	waitFor(t, 2*time.Second, func() bool {
		got, _ := q.Get(tk.ID)
		return got.Status == task.StatusFailed
	})
	got, _ := q.Get(tk.ID)
	if got.ErrorMessage != "codec not supported" {
		t.Fatalf("error message = %q", got.ErrorMessage)
	}
}

func TestExecutorSkipsTypesWithoutRunner(t *testing.T) {
	q := scheduler.New(2)
	exec := executor.New(q, 5*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			return nil
		},
	))

	unhandled := task.New("video-1", tasktype.TypeDownload)
	handled := task.New("video-2", tasktype.TypeImport)
	q.AddAll([]*task.Task{unhandled, handled})

	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exec.Stop()

	waitFor(t, 2*time.Second, func() bool {
		got, _ := q.Get(handled.ID)
		return got.Status == task.StatusCompleted
	})
	got, _ := q.Get(unhandled.ID)
	if got.Status != task.StatusPending {
		t.Fatalf("unhandled task should stay pending, got %q", got.Status)
	}
}

func TestExecutorCooperativeCancellation(t *testing.T) {
	q := scheduler.New(1)
	started := make(chan struct{})
	exec := executor.New(q, 5*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	))

	tk := task.New("video-1", tasktype.TypeImport)
	q.Add(tk)
	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer exec.Stop()

	<-started
	q.Cancel(tk.ID)

	waitFor(t, 2*time.Second, func() bool {
		return q.InFlightCount() == 0
	})
	got, _ := q.Get(tk.ID)
	if got.Status != task.StatusCancelled {
		t.Fatalf("status after cancel = %q", got.Status)
	}
}

func TestExecutorStopWaitsForRunners(t *testing.T) {
	q := scheduler.New(1)
	var finished atomic.Bool
	exec := executor.New(q, 5*time.Millisecond, nil)
	exec.Register(tasktype.TypeImport, executor.RunnerFunc(
		func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
			<-ctx.Done()
			finished.Store(true)
			return ctx.Err()
		},
	))

	tk := task.New("video-1", tasktype.TypeImport)
	q.Add(tk)
	if err := exec.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		got, _ := q.Get(tk.ID)
		return got.Status == task.StatusProcessing
	})

	exec.Stop()
	if !finished.Load() {
		t.Fatal("Stop returned before runner finished")
	}
	// Interrupted work stays processing so a restart resets it to pending.
	got, _ := q.Get(tk.ID)
	if got.Status != task.StatusProcessing {
		t.Fatalf("interrupted task status = %q", got.Status)
	}
}
