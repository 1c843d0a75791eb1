package main

import (
	"context"
	"strings"
	"testing"

	"reelqueue/internal/daemon"
	"reelqueue/internal/ipc"
	"reelqueue/internal/task"
)

func startTestDaemon(t *testing.T, env *cliTestEnv) *daemon.Daemon {
	t.Helper()

	d, err := daemon.New(env.cfg, env.store, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, ipc.SocketPath(env.cfg), d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping control socket test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return d
}

func TestCommandsOperateOnRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	d := startTestDaemon(t, env)

	stdout, _, err := runCLI(t, env.configPath, "add", "video-live", "--type", "download")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	requireContains(t, stdout, "Queued download task")

	// The enqueue must land in the running daemon's queue, not only in the
	// store snapshot the daemon would overwrite on its next persist.
	tasks := d.Queue().Tasks()
	if len(tasks) != 1 || tasks[0].Subject != "video-live" {
		t.Fatalf("live queue = %+v, want the CLI enqueue", tasks)
	}
	id := tasks[0].ID

	stdout, _, err = runCLI(t, env.configPath, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	requireContains(t, stdout, "video-live")

	stdout, _, err = runCLI(t, env.configPath, "cancel", id[:8])
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	requireContains(t, stdout, "cancelled")
	got, ok := d.Queue().Get(id)
	if !ok || got.Status != task.StatusCancelled {
		t.Fatalf("task after CLI cancel = %+v, want cancelled in the live queue", got)
	}

	if _, _, err := runCLI(t, env.configPath, "pause"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if !d.Queue().Paused() {
		t.Fatal("pause command did not reach the daemon")
	}
	if _, _, err := runCLI(t, env.configPath, "resume"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if d.Queue().Paused() {
		t.Fatal("resume command did not reach the daemon")
	}

	stdout, _, err = runCLI(t, env.configPath, "events")
	if err != nil {
		t.Fatalf("events failed: %v", err)
	}
	requireContains(t, stdout, "task_added")
	requireContains(t, stdout, "video-live")
}

func TestDaemonOnlyCommandsRequireDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "events")
	if err == nil {
		t.Fatal("expected events to fail without a daemon")
	}
	requireContains(t, err.Error(), "start reelqueued first")

	_, _, err = runCLI(t, env.configPath, "pause")
	if err == nil {
		t.Fatal("expected pause to fail without a daemon")
	}
}
