package availability

import (
	"context"
	"sync"

	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// Provider reports whether a subject already has the artifact a task type
// would produce.
type Provider interface {
	HasArtifact(ctx context.Context, subject string, kind tasktype.Type) (bool, error)
}

// Recorder persists the fact that a subject now has an artifact.
type Recorder interface {
	RecordArtifact(ctx context.Context, subject string, kind tasktype.Type) error
}

// Unavailable is the conservative default: no artifact is ever confirmed, so
// dependencies are satisfied only by completed sibling tasks.
type Unavailable struct{}

// HasArtifact implements Provider.
func (Unavailable) HasArtifact(context.Context, string, tasktype.Type) (bool, error) {
	return false, nil
}

// Static is an in-memory Provider and Recorder used in tests and by hosts
// that track artifacts themselves.
type Static struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewStatic constructs an empty in-memory artifact set.
func NewStatic() *Static {
	return &Static{keys: make(map[string]struct{})}
}

// HasArtifact implements Provider.
func (s *Static) HasArtifact(_ context.Context, subject string, kind tasktype.Type) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[task.NaturalKey(subject, kind)]
	return ok, nil
}

// RecordArtifact implements Recorder.
func (s *Static) RecordArtifact(_ context.Context, subject string, kind tasktype.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[task.NaturalKey(subject, kind)] = struct{}{}
	return nil
}
