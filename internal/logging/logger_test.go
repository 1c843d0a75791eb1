package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewForDirWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewForDir(dir, "info", "json")
	if err != nil {
		t.Fatalf("NewForDir failed: %v", err)
	}
	logger.Info("hello", String("k", "v"))

	data, err := os.ReadFile(filepath.Join(dir, "reelqueue.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log line missing: %s", data)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("ignored", Error(nil))
}
