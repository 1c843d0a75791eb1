package ipc

import (
	"path/filepath"

	"reelqueue/internal/config"
	"reelqueue/internal/events"
	"reelqueue/internal/task"
)

// SocketPath returns the control socket location for a configuration. The
// socket lives next to the queue database so both binaries derive it from
// the same state directory.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "reelqueued.sock")
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse reports daemon and queue diagnostics.
type StatusResponse struct {
	Running      bool           `json:"running"`
	Paused       bool           `json:"paused"`
	InFlight     int            `json:"in_flight"`
	Capacity     int            `json:"capacity"`
	TaskCounts   map[string]int `json:"task_counts"`
	QueueDBPath  string         `json:"queue_db_path"`
	LockFilePath string         `json:"lock_file_path"`
	PID          int            `json:"pid"`
}

// AddRequest enqueues a task on the live queue.
type AddRequest struct {
	Task task.Task `json:"task"`
}

// AddResponse reports whether the task was accepted. Task carries the
// post-admission state, so a dependent task already shows up as waiting.
type AddResponse struct {
	Added bool      `json:"added"`
	Task  task.Task `json:"task"`
}

// ListRequest fetches all queued tasks.
type ListRequest struct{}

// ListResponse contains queue tasks in insertion order.
type ListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

// RetryRequest returns a failed or cancelled task to pending.
type RetryRequest struct {
	ID string `json:"id"`
}

// RetryResponse reports whether the task was reset.
type RetryResponse struct {
	Retried bool `json:"retried"`
}

// CancelRequest cancels a queued or processing task.
type CancelRequest struct {
	ID string `json:"id"`
}

// CancelResponse reports whether the task was cancelled.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// RemoveRequest deletes a task from the queue.
type RemoveRequest struct {
	ID string `json:"id"`
}

// RemoveResponse reports whether the task was removed.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// Clear scopes accepted by ClearRequest. An empty scope clears completed
// tasks.
const (
	ClearCompleted = "completed"
	ClearFailed    = "failed"
	ClearAll       = "all"
)

// ClearRequest removes finished tasks by scope.
type ClearRequest struct {
	Scope string `json:"scope"`
}

// ClearResponse reports the number of removed tasks.
type ClearResponse struct {
	Removed int `json:"removed"`
}

// PauseRequest freezes task admission.
type PauseRequest struct{}

// PauseResponse reports the resulting pause state.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// ResumeRequest re-enables task admission.
type ResumeRequest struct{}

// ResumeResponse reports the resulting pause state.
type ResumeResponse struct {
	Paused bool `json:"paused"`
}

// EventsRequest fetches scheduler events after a sequence number. Since 0
// without Wait returns the most recent events. When Wait is set the call
// blocks until an event past Since arrives or WaitMillis elapses.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Wait       bool   `json:"wait"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse returns events and the cursor for the next fetch.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}
