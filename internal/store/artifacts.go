package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelqueue/internal/tasktype"
)

// RecordArtifact persists that a subject now possesses the artifact a task
// type produces. Recording the same pair twice is a no-op.
func (s *Store) RecordArtifact(ctx context.Context, subject string, kind tasktype.Type) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (subject, kind, recorded_at) VALUES (?, ?, ?)
         ON CONFLICT (subject, kind) DO NOTHING`,
		normalizeSubject(subject),
		string(kind),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}
	return nil
}

// HasArtifact reports whether the subject already possesses the artifact the
// given task type would produce, independent of any task history.
func (s *Store) HasArtifact(ctx context.Context, subject string, kind tasktype.Type) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM artifacts WHERE subject = ? AND kind = ? LIMIT 1`,
		normalizeSubject(subject),
		string(kind),
	)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup artifact: %w", err)
	}
	return true, nil
}

// RemoveArtifacts deletes every recorded artifact for a subject, forcing
// future readiness checks to rely on sibling tasks again.
func (s *Store) RemoveArtifacts(ctx context.Context, subject string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE subject = ?`, normalizeSubject(subject))
	if err != nil {
		return 0, fmt.Errorf("remove artifacts: %w", err)
	}
	return res.RowsAffected()
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
