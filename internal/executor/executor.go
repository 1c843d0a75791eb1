package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelqueue/internal/logging"
	"reelqueue/internal/scheduler"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// ProgressFunc reports task progress in [0, 1] with a short message.
type ProgressFunc func(value float64, message string)

// Runner performs the actual work for one task type. Run must honor ctx
// cancellation; returning a nil error marks the task completed, any other
// error marks it failed.
type Runner interface {
	Run(ctx context.Context, t task.Task, progress ProgressFunc) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, t task.Task, progress ProgressFunc) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, t task.Task, progress ProgressFunc) error {
	return f(ctx, t, progress)
}

// Executor runs ready tasks from a scheduler queue using registered runners.
type Executor struct {
	queue        *scheduler.Queue
	logger       *slog.Logger
	pollInterval time.Duration
	runners      map[tasktype.Type]Runner
	warned       map[tasktype.Type]struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs an executor polling the queue at the given interval.
func New(queue *scheduler.Queue, pollInterval time.Duration, logger *slog.Logger) *Executor {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		queue:        queue,
		logger:       logging.NewComponentLogger(logger, "executor"),
		pollInterval: pollInterval,
		runners:      make(map[tasktype.Type]Runner),
		warned:       make(map[tasktype.Type]struct{}),
	}
}

// Register installs the runner for a task type. Later registrations replace
// earlier ones. Register must be called before Start.
func (e *Executor) Register(t tasktype.Type, runner Runner) {
	if runner == nil {
		return
	}
	e.runners[t] = runner
}

// RunnerTypes returns the task types with a registered runner.
func (e *Executor) RunnerTypes() []tasktype.Type {
	types := make([]tasktype.Type, 0, len(e.runners))
	for _, t := range tasktype.All() {
		if _, ok := e.runners[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// Start begins polling for ready tasks.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return errors.New("executor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	go e.loop(runCtx)
	return nil
}

// Stop terminates polling and waits for in-flight runners to return.
func (e *Executor) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
}

func (e *Executor) loop(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if e.dispatchReady(ctx) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.pollInterval):
			}
		}
	}
}

// dispatchReady admits and launches every ready task with a registered
// runner, returning how many were started.
func (e *Executor) dispatchReady(ctx context.Context) int {
	started := 0
	for _, ready := range e.queue.ReadyTasks() {
		runner, ok := e.runners[ready.Type]
		if !ok {
			if _, seen := e.warned[ready.Type]; !seen {
				e.warned[ready.Type] = struct{}{}
				e.logger.Warn("no runner registered for task type; tasks of this type will stay pending",
					logging.String("type", string(ready.Type)),
				)
			}
			continue
		}
		if !e.queue.StartTask(ready.ID) {
			continue
		}
		e.wg.Add(1)
		go e.run(ctx, ready, runner)
		started++
	}
	return started
}

func (e *Executor) run(ctx context.Context, t task.Task, runner Runner) {
	defer e.wg.Done()
	defer e.queue.FinishTask(t.ID)

	taskCtx, cancelTask := context.WithCancel(ctx)
	defer cancelTask()
	stopWatch := e.watchForCancellation(taskCtx, t.ID, cancelTask)
	defer stopWatch()

	logger := e.logger.With(
		logging.String("task", t.ID),
		logging.String("type", string(t.Type)),
		logging.String("subject", t.Subject),
	)
	logger.Info("task started")

	progress := func(value float64, message string) {
		e.queue.SetProgress(t.ID, value, message)
	}

	err := runner.Run(taskCtx, t, progress)
	switch {
	case err == nil:
		e.queue.Complete(t.ID)
		logger.Info("task completed")
	case errors.Is(err, context.Canceled):
		// Shutdown or cooperative cancel: the scheduler state already
		// reflects the outcome (cancelled, or processing for crash
		// recovery to reset on restart).
		logger.Info("task interrupted", logging.Error(err))
	default:
		e.queue.Fail(t.ID, err.Error())
		logger.Warn("task failed", logging.Error(err))
	}
}

// watchForCancellation cancels the task context when the task leaves
// processing state, so runners observe user-initiated cancellation.
func (e *Executor) watchForCancellation(ctx context.Context, id string, cancelTask context.CancelFunc) func() {
	done := make(chan struct{})
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				current, ok := e.queue.Get(id)
				if !ok || current.Status != task.StatusProcessing {
					cancelTask()
					return
				}
			}
		}
	}()
	return func() { close(done) }
}
