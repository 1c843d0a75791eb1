package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"reelqueue/internal/config"
	"reelqueue/internal/ipc"
	"reelqueue/internal/scheduler"
	"reelqueue/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withQueue runs fn against the live daemon when the control socket answers,
// so mutations land in the running queue instead of being overwritten by its
// next persist. Without a daemon, fn operates on the persisted snapshot and
// changes are written back to the store.
func (c *commandContext) withQueue(ctx context.Context, fn func(queueAccess) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	socket := ipc.SocketPath(cfg)
	client, dialErr := ipc.Dial(socket)
	if dialErr == nil {
		defer client.Close()
		return fn(&daemonQueue{client: client})
	}
	if !isDaemonDown(dialErr) {
		return wrapDialError(dialErr, socket)
	}
	return c.withStoreQueue(ctx, cfg, fn)
}

// withClient requires a running daemon. Commands that only make sense
// against live state (pause, resume, events) use it.
func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	socket := ipc.SocketPath(cfg)
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) withStoreQueue(ctx context.Context, cfg *config.Config, fn func(queueAccess) error) error {
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tasks, err := st.LoadTasks(ctx)
	if err != nil {
		return err
	}

	q := scheduler.New(cfg.Scheduler.Concurrency,
		scheduler.WithAvailability(st),
		scheduler.WithRecorder(st),
	)
	q.AddAll(tasks)

	access := &snapshotQueue{queue: q}
	if err := fn(access); err != nil {
		return err
	}
	if access.changed {
		return st.SaveTasks(ctx, q.Tasks())
	}
	return nil
}

// isDaemonDown distinguishes "no daemon" from a genuinely broken socket.
func isDaemonDown(err error) bool {
	return errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		os.IsNotExist(err)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start reelqueued first", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify reelqueued is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}
