package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"reelqueue/internal/config"
	"reelqueue/internal/executor"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// builtinRunners returns the runners compiled into the daemon. Only import
// verification ships here; media work (thumbnailing, transcription,
// translation, summarization) is provided by external runner processes and
// their task types stay pending until one registers.
func builtinRunners(cfg *config.Config, logger *slog.Logger) map[tasktype.Type]executor.Runner {
	return map[tasktype.Type]executor.Runner{
		tasktype.TypeImport: executor.RunnerFunc(
			func(ctx context.Context, t task.Task, progress executor.ProgressFunc) error {
				return runImport(ctx, t, progress)
			},
		),
	}
}

// runImport verifies the source file referenced by the task subject. The
// subject for watcher-enqueued tasks is the inbox file path; manually added
// subjects that do not resolve to a file fail with a clear message.
func runImport(ctx context.Context, t task.Task, progress executor.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	progress(0.1, "verifying source file")

	info, err := os.Stat(t.Subject)
	if err != nil {
		return fmt.Errorf("source file unavailable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source path %q is a directory", t.Subject)
	}
	if info.Size() == 0 {
		return fmt.Errorf("source file %q is empty", t.Subject)
	}

	progress(1, "source file verified")
	return nil
}
