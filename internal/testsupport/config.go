package testsupport

import (
	"path/filepath"
	"testing"

	"reelqueue/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Scheduler.PollIntervalMS = 10
	cfg.Scheduler.PersistDelayMS = 10
	return &cfg
}
