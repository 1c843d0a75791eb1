package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelqueue/internal/config"
	"reelqueue/internal/events"
	"reelqueue/internal/executor"
	"reelqueue/internal/logging"
	"reelqueue/internal/scheduler"
	"reelqueue/internal/store"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
	"reelqueue/internal/watch"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	hub     *events.Hub
	queue   *scheduler.Queue
	exec    *executor.Executor
	watcher *watch.Watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	dirty   atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	Paused       bool
	InFlight     int
	Capacity     int
	TaskCounts   map[task.Status]int
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. Runners map task
// types to the workers that execute them; types without a runner stay
// pending until a future daemon version handles them.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, runners map[tasktype.Type]executor.Runner) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := events.NewHub(cfg.Scheduler.EventBuffer)
	queue := scheduler.New(cfg.Scheduler.Concurrency,
		scheduler.WithAvailability(st),
		scheduler.WithRecorder(st),
		scheduler.WithEvents(hub),
		scheduler.WithLogger(logger),
	)

	pollInterval := time.Duration(cfg.Scheduler.PollIntervalMS) * time.Millisecond
	exec := executor.New(queue, pollInterval, logger)
	for t, runner := range runners {
		exec.Register(t, runner)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		hub:      hub,
		queue:    queue,
		exec:     exec,
		lockPath: filepath.Join(cfg.Paths.StateDir, "reelqueued.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if cfg.Ingest.Enabled {
		d.watcher = watch.New(cfg, queue, logger)
	}

	hub.AddSink(events.SinkFunc(func(events.Event) {
		d.dirty.Store(true)
	}))
	return d, nil
}

// Queue exposes the scheduler queue for status queries and manual task
// operations.
func (d *Daemon) Queue() *scheduler.Queue {
	return d.queue
}

// Events exposes the event hub for log streaming and status subscribers.
func (d *Daemon) Events() *events.Hub {
	return d.hub
}

// Start acquires the instance lock, restores persisted queue state, and
// launches the executor, the persistence loop, and the inbox watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelqueue daemon instance is already running")
	}

	if err := d.restore(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("restore queue: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.exec.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start executor: %w", err)
	}
	if d.watcher != nil {
		if err := d.watcher.Start(runCtx); err != nil {
			d.exec.Stop()
			cancel()
			d.cancel = nil
			_ = d.lock.Unlock()
			return fmt.Errorf("start inbox watcher: %w", err)
		}
	}

	d.wg.Add(1)
	go d.persistLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("concurrency", d.queue.Capacity()),
	)
	return nil
}

// Stop halts background processing, persists the final queue state, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.exec.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()

	if err := d.persist(context.Background()); err != nil {
		d.logger.Warn("final queue persist failed", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns current daemon diagnostics.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Paused:       d.queue.Paused(),
		InFlight:     d.queue.InFlightCount(),
		Capacity:     d.queue.Capacity(),
		TaskCounts:   d.queue.Stats(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// restore loads the persisted task snapshot into the queue. Tasks that were
// processing when the previous instance died come back as pending.
func (d *Daemon) restore(ctx context.Context) error {
	tasks, err := d.store.LoadTasks(ctx)
	if err != nil {
		return err
	}
	d.queue.Restore(tasks)
	d.dirty.Store(false)
	if len(tasks) > 0 {
		d.logger.Info("queue restored", logging.Int("tasks", len(tasks)))
	}
	return nil
}

// persistLoop writes the queue snapshot to the store whenever events marked
// it dirty, at most once per persist delay.
func (d *Daemon) persistLoop(ctx context.Context) {
	defer d.wg.Done()

	delay := time.Duration(d.cfg.Scheduler.PersistDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.dirty.Swap(false) {
				continue
			}
			if err := d.persist(ctx); err != nil {
				d.dirty.Store(true)
				d.logger.Warn("queue persist failed", logging.Error(err))
			}
		}
	}
}

func (d *Daemon) persist(ctx context.Context) error {
	return d.store.SaveTasks(ctx, d.queue.Tasks())
}
