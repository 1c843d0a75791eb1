package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"reelqueue/internal/task"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorizeStatus(status task.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	var color string
	switch status {
	case task.StatusCompleted:
		color = ansiGreen
	case task.StatusFailed:
		color = ansiRed
	case task.StatusProcessing:
		color = ansiBlue
	case task.StatusWaiting:
		color = ansiYellow
	}
	if color == "" {
		return string(status)
	}
	return color + string(status) + ansiReset
}

// shortID trims a UUID to its first group for display; full IDs still work
// everywhere an ID is accepted.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatProgress(t task.Task) string {
	if t.Status == task.StatusCompleted {
		return "100%"
	}
	if t.Status != task.StatusProcessing && t.Progress == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", t.Progress*100)
}

func formatCreated(t task.Task) string {
	return t.CreatedAt.Local().Format(time.DateTime)
}
