package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
	"reelqueue/internal/testsupport"
	"reelqueue/internal/watch"
)

type captureQueue struct {
	mu    sync.Mutex
	tasks []*task.Task
}

func (c *captureQueue) Add(t *task.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tasks {
		if existing.NaturalKey() == t.NaturalKey() {
			return false
		}
	}
	c.tasks = append(c.tasks, t)
	return true
}

func (c *captureQueue) snapshot() []*task.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*task.Task(nil), c.tasks...)
}

func waitForTasks(t *testing.T, q *captureQueue, want int) []*task.Task {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if got := q.snapshot(); len(got) >= want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d tasks, got %d", want, len(q.snapshot()))
	return nil
}

func newTestWatcher(t *testing.T, q *captureQueue) (*watch.Watcher, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.Enabled = true
	cfg.Ingest.SettleMS = 50
	cfg.Ingest.FollowUps = []string{"thumbnail", "transcribe"}
	cfg.Translation.DefaultLocales = []string{"de-DE"}
	if err := os.MkdirAll(cfg.Paths.InboxDir, 0o755); err != nil {
		t.Fatalf("create inbox: %v", err)
	}
	return watch.New(cfg, q, nil), cfg.Paths.InboxDir
}

func TestWatcherEnqueuesSettledVideo(t *testing.T) {
	q := &captureQueue{}
	w, inbox := newTestWatcher(t, q)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(inbox, "holiday.mp4")
	if err := os.WriteFile(path, []byte("frames"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	tasks := waitForTasks(t, q, 1)
	got := tasks[0]
	if got.Type != tasktype.TypeImport {
		t.Fatalf("type = %q", got.Type)
	}
	if got.Subject != path {
		t.Fatalf("subject = %q, want %q", got.Subject, path)
	}
	if len(got.FollowUps) != 2 || got.FollowUps[0] != tasktype.TypeThumbnail {
		t.Fatalf("follow-ups = %v", got.FollowUps)
	}
	if len(got.TargetLocales) != 1 || got.TargetLocales[0] != "de-DE" {
		t.Fatalf("locales = %v", got.TargetLocales)
	}
}

func TestWatcherIgnoresUnrecognizedExtensions(t *testing.T) {
	q := &captureQueue{}
	w, inbox := newTestWatcher(t, q)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "clip.mov"), []byte("frames"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	tasks := waitForTasks(t, q, 1)
	time.Sleep(150 * time.Millisecond)
	tasks = q.snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected only the video enqueued, got %d tasks", len(tasks))
	}
	if filepath.Ext(tasks[0].Subject) != ".mov" {
		t.Fatalf("wrong file enqueued: %q", tasks[0].Subject)
	}
}

func TestWatcherSweepsExistingFiles(t *testing.T) {
	q := &captureQueue{}
	w, inbox := newTestWatcher(t, q)

	path := filepath.Join(inbox, "preexisting.mkv")
	if err := os.WriteFile(path, []byte("frames"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	tasks := waitForTasks(t, q, 1)
	if tasks[0].Subject != path {
		t.Fatalf("subject = %q", tasks[0].Subject)
	}
}

func TestWatcherDropsRemovedFiles(t *testing.T) {
	q := &captureQueue{}
	w, inbox := newTestWatcher(t, q)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(inbox, "aborted.mp4")
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := q.snapshot(); len(got) != 0 {
		t.Fatalf("removed file was enqueued: %v", got)
	}
}

func TestWatcherStartFailsOnMissingDir(t *testing.T) {
	q := &captureQueue{}
	w, inbox := newTestWatcher(t, q)
	if err := os.RemoveAll(inbox); err != nil {
		t.Fatalf("remove inbox: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected Start to fail for missing inbox directory")
	}
}
