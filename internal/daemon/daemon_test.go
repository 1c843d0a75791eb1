package daemon_test

import (
	"context"
	"testing"
	"time"

	"reelqueue/internal/config"
	"reelqueue/internal/daemon"
	"reelqueue/internal/executor"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
	"reelqueue/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config, runners map[tasktype.Type]executor.Runner) *daemon.Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, nil, runners)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newTestDaemon(t, cfg, nil)
	second := newTestDaemon(t, cfg, nil)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance acquired the lock")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("second Start after release failed: %v", err)
	}
	second.Stop()
}

func TestDaemonRunsTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runners := map[tasktype.Type]executor.Runner{
		tasktype.TypeImport: executor.RunnerFunc(
			func(ctx context.Context, tk task.Task, progress executor.ProgressFunc) error {
				return nil
			},
		),
	}
	d := newTestDaemon(t, cfg, runners)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	tk := task.New("video-1", tasktype.TypeImport)
	d.Queue().Add(tk)

	waitFor(t, 3*time.Second, func() bool {
		got, _ := d.Queue().Get(tk.ID)
		return got.Status == task.StatusCompleted
	})
}

func TestDaemonPersistsAndRestores(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	tk := task.New("video-1", tasktype.TypeThumbnail)
	d.Queue().Add(tk)
	d.Stop()

	restarted := newTestDaemon(t, cfg, nil)
	if err := restarted.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	defer restarted.Stop()

	got, ok := restarted.Queue().Get(tk.ID)
	if !ok {
		t.Fatal("task lost across restart")
	}
	// Thumbnail depends on download with nothing satisfying it, so the
	// restored task must be waiting.
	if got.Status != task.StatusWaiting {
		t.Fatalf("restored status = %q", got.Status)
	}
}

func TestDaemonResetsInterruptedWorkOnRestore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	orphan := task.New("video-1", tasktype.TypeImport)
	orphan.MarkStarted()
	if err := st.SaveTasks(context.Background(), []task.Task{*orphan.Clone()}); err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}

	d, err := daemon.New(cfg, st, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	got, ok := d.Queue().Get(orphan.ID)
	if !ok {
		t.Fatal("orphaned task missing after restore")
	}
	if got.Status != task.StatusPending {
		t.Fatalf("orphaned task status = %q, want pending", got.Status)
	}
}

func TestDaemonDebouncedPersistence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	tk := task.New("video-1", tasktype.TypeImport)
	d.Queue().Add(tk)

	waitFor(t, 3*time.Second, func() bool {
		loaded, err := st.LoadTasks(context.Background())
		return err == nil && len(loaded) == 1
	})
}

func TestDaemonStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, nil)

	if d.Status().Running {
		t.Fatal("daemon reported running before Start")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	d.Queue().Add(task.New("video-1", tasktype.TypeImport))
	status := d.Status()
	if !status.Running {
		t.Fatal("daemon not reported running")
	}
	if status.Capacity != cfg.Scheduler.Concurrency {
		t.Fatalf("capacity = %d", status.Capacity)
	}
	if status.TaskCounts[task.StatusPending] != 1 {
		t.Fatalf("task counts = %v", status.TaskCounts)
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatal("paths missing from status")
	}
}
