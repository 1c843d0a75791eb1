package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"reelqueue/internal/tasktype"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting_for_dependencies"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// WaitingMessage is the status message set while prerequisites are unmet.
const WaitingMessage = "Waiting for dependencies"

var allStatuses = []Status{
	StatusPending,
	StatusWaiting,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status has left the active state space.
// Terminal here means "not schedulable"; failed and cancelled tasks can
// still return to pending through Reset.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is a single unit of work tracked by the scheduler.
type Task struct {
	ID      string        `json:"id"`
	Subject string        `json:"subject"`
	Type    tasktype.Type `json:"type"`

	Status        Status  `json:"status"`
	Progress      float64 `json:"progress"`
	StatusMessage string  `json:"status_message,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Optional per-type payload.
	ForceReprocess bool            `json:"force_reprocess,omitempty"`
	FollowUps      []tasktype.Type `json:"follow_ups,omitempty"`
	TargetLocales  []string        `json:"target_locales,omitempty"`
}

// Option configures optional task fields at construction time.
type Option func(*Task)

// WithForceReprocess marks the task to redo work even when an artifact
// already exists.
func WithForceReprocess() Option {
	return func(t *Task) { t.ForceReprocess = true }
}

// WithFollowUps sets task types to auto-enqueue for the same subject once
// this task completes.
func WithFollowUps(types ...tasktype.Type) Option {
	return func(t *Task) { t.FollowUps = append(t.FollowUps, types...) }
}

// WithTargetLocales sets translation target locales.
func WithTargetLocales(locales ...string) Option {
	return func(t *Task) { t.TargetLocales = append(t.TargetLocales, locales...) }
}

// New constructs a pending task for the given subject and type.
func New(subject string, t tasktype.Type, opts ...Option) *Task {
	tk := &Task{
		ID:        uuid.NewString(),
		Subject:   strings.TrimSpace(subject),
		Type:      t,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(tk)
	}
	return tk
}

// NaturalKey derives the deduplication key from (subject, type). Two tasks
// with equal natural keys describe the same work.
func (t *Task) NaturalKey() string {
	return NaturalKey(t.Subject, t.Type)
}

// NaturalKey builds the deduplication key for a (subject, type) pair.
func NaturalKey(subject string, t tasktype.Type) string {
	return strings.ToLower(strings.TrimSpace(subject)) + "|" + string(t)
}

// MarkStarted moves a pending task into processing, resetting progress and
// recording the start time. Calling it from any other state is a no-op.
func (t *Task) MarkStarted() {
	if t.Status != StatusPending {
		return
	}
	now := time.Now().UTC()
	t.Status = StatusProcessing
	t.Progress = 0
	t.StatusMessage = ""
	t.StartedAt = &now
}

// UpdateProgress records progress while processing, clamping to [0, 1].
func (t *Task) UpdateProgress(value float64, message string) {
	if t.Status != StatusProcessing {
		return
	}
	t.Progress = clampProgress(value)
	t.StatusMessage = message
}

// MarkCompleted finishes the task successfully. Completed is the only state
// with no outgoing transition.
func (t *Task) MarkCompleted() {
	if t.Status != StatusProcessing {
		return
	}
	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.Progress = 1
	t.ErrorMessage = ""
	t.CompletedAt = &now
}

// MarkFailed records a failure with a human-readable message. The task stays
// failed until explicitly retried.
func (t *Task) MarkFailed(message string) {
	if t.Status != StatusProcessing {
		return
	}
	now := time.Now().UTC()
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.StatusMessage = message
	t.CompletedAt = &now
}

// MarkCancelled cancels a task from any non-completed, non-failed state.
func (t *Task) MarkCancelled() {
	switch t.Status {
	case StatusPending, StatusWaiting, StatusProcessing:
	default:
		return
	}
	now := time.Now().UTC()
	t.Status = StatusCancelled
	t.ErrorMessage = ""
	t.CompletedAt = &now
}

// Reset returns a failed, cancelled, or crash-recovered task to pending,
// clearing progress, error, and timestamps. This is the only transition that
// un-terminates a task; completed tasks must be re-enqueued instead.
func (t *Task) Reset() {
	switch t.Status {
	case StatusFailed, StatusCancelled, StatusProcessing:
	default:
		return
	}
	t.Status = StatusPending
	t.Progress = 0
	t.StatusMessage = ""
	t.ErrorMessage = ""
	t.StartedAt = nil
	t.CompletedAt = nil
}

// Clone returns an independent copy of the task.
func (t *Task) Clone() *Task {
	cp := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		cp.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		cp.CompletedAt = &completed
	}
	if len(t.FollowUps) > 0 {
		cp.FollowUps = make([]tasktype.Type, len(t.FollowUps))
		copy(cp.FollowUps, t.FollowUps)
	}
	if len(t.TargetLocales) > 0 {
		cp.TargetLocales = make([]string, len(t.TargetLocales))
		copy(cp.TargetLocales, t.TargetLocales)
	}
	return &cp
}

func clampProgress(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
