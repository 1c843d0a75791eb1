package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"reelqueue/internal/config"
	"reelqueue/internal/logging"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// Enqueuer receives the import tasks produced by the watcher.
type Enqueuer interface {
	Add(t *task.Task) bool
}

// Watcher monitors the inbox directory and enqueues an import task for each
// video file that appears and settles.
type Watcher struct {
	enqueue    Enqueuer
	logger     *slog.Logger
	dir        string
	extensions map[string]struct{}
	followUps  []tasktype.Type
	locales    []string
	settle     time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a watcher from the ingest configuration.
func New(cfg *config.Config, enqueue Enqueuer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	extensions := make(map[string]struct{}, len(cfg.Ingest.VideoExtensions))
	for _, ext := range cfg.Ingest.VideoExtensions {
		extensions[ext] = struct{}{}
	}
	settle := time.Duration(cfg.Ingest.SettleMS) * time.Millisecond
	if settle <= 0 {
		settle = 1500 * time.Millisecond
	}
	return &Watcher{
		enqueue:    enqueue,
		logger:     logging.NewComponentLogger(logger, "watch"),
		dir:        cfg.Paths.InboxDir,
		extensions: extensions,
		followUps:  cfg.FollowUpTypes(),
		locales:    append([]string(nil), cfg.Translation.DefaultLocales...),
		settle:     settle,
		pending:    make(map[string]*time.Timer),
	}
}

// Start begins watching the inbox directory. Files already present are
// enqueued through the same settle path as newly created ones.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		w.markStopped()
		return err
	}
	if err := fsWatcher.Add(w.dir); err != nil {
		fsWatcher.Close()
		cancel()
		w.markStopped()
		return err
	}

	if err := w.sweepExisting(); err != nil {
		w.logger.Warn("initial inbox sweep failed", logging.Error(err))
	}

	w.wg.Add(1)
	go w.loop(runCtx, fsWatcher)
	w.logger.Info("watching inbox directory", logging.String("dir", w.dir))
	return nil
}

// Stop terminates the watcher and discards files still settling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Watcher) markStopped() {
	w.mu.Lock()
	w.running = false
	w.cancel = nil
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context, fsWatcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsWatcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.recognized(event.Name) {
		return
	}
	switch {
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.scheduleSettle(event.Name)
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.cancelSettle(event.Name)
	}
}

// scheduleSettle arms (or re-arms) the settle timer for a file. Each write
// pushes the deadline out, so the file is only enqueued once it has stopped
// changing for the full settle window.
func (w *Watcher) scheduleSettle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.settled(path)
	})
}

func (w *Watcher) cancelSettle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) settled(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	t := task.New(path, tasktype.TypeImport,
		task.WithFollowUps(w.followUps...),
		task.WithTargetLocales(w.locales...),
	)
	if w.enqueue.Add(t) {
		w.logger.Info("enqueued import for inbox file",
			logging.String("file", filepath.Base(path)),
			logging.String("task", t.ID),
		)
	} else {
		w.logger.Debug("inbox file already queued", logging.String("file", filepath.Base(path)))
	}
}

// sweepExisting schedules settle timers for files already in the inbox, so
// a daemon restart does not strand files dropped while it was down.
func (w *Watcher) sweepExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.recognized(path) {
			w.scheduleSettle(path)
		}
	}
	return nil
}

func (w *Watcher) recognized(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := w.extensions[ext]
	return ok
}
