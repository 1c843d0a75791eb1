package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelqueue/internal/config"
	"reelqueue/internal/task"
	"reelqueue/internal/tasktype"
)

// Store manages scheduler persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "queue.db"))
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the database.
func (s *Store) Path() string {
	return s.path
}

// SaveTasks replaces the persisted task snapshot with the given collection,
// preserving its order. The scheduler is the authority on task state; the
// store only mirrors it.
func (s *Store) SaveTasks(ctx context.Context, tasks []task.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (
        id, position, subject, type, status, progress, status_message,
        error_message, created_at, started_at, completed_at,
        force_reprocess, follow_ups, target_locales
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		followUps, err := marshalTypes(t.FollowUps)
		if err != nil {
			return fmt.Errorf("marshal follow-ups for %s: %w", t.ID, err)
		}
		locales, err := marshalStrings(t.TargetLocales)
		if err != nil {
			return fmt.Errorf("marshal locales for %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID,
			i,
			t.Subject,
			string(t.Type),
			string(t.Status),
			t.Progress,
			nullableString(t.StatusMessage),
			nullableString(t.ErrorMessage),
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
			nullableTime(t.StartedAt),
			nullableTime(t.CompletedAt),
			boolToInt(t.ForceReprocess),
			nullableString(followUps),
			nullableString(locales),
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadTasks returns the persisted task snapshot in its original order.
func (s *Store) LoadTasks(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
        id, subject, type, status, progress, status_message, error_message,
        created_at, started_at, completed_at, force_reprocess, follow_ups,
        target_locales
    FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Stats returns a count of persisted tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[task.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[task.Status]int)
	for rows.Next() {
		var status task.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*task.Task, error) {
	var (
		id             string
		subject        string
		typeStr        string
		statusStr      string
		progress       sql.NullFloat64
		statusMessage  sql.NullString
		errorMessage   sql.NullString
		createdRaw     string
		startedRaw     sql.NullString
		completedRaw   sql.NullString
		forceReprocess sql.NullInt64
		followUpsRaw   sql.NullString
		localesRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&subject,
		&typeStr,
		&statusStr,
		&progress,
		&statusMessage,
		&errorMessage,
		&createdRaw,
		&startedRaw,
		&completedRaw,
		&forceReprocess,
		&followUpsRaw,
		&localesRaw,
	); err != nil {
		return nil, err
	}

	t := &task.Task{
		ID:            id,
		Subject:       subject,
		Type:          tasktype.Type(typeStr),
		Status:        task.Status(statusStr),
		Progress:      progress.Float64,
		StatusMessage: statusMessage.String,
		ErrorMessage:  errorMessage.String,
	}
	if forceReprocess.Valid {
		t.ForceReprocess = forceReprocess.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		t.CreatedAt = created
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			t.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			t.CompletedAt = &completed
		}
	}
	if followUpsRaw.Valid && followUpsRaw.String != "" {
		if err := json.Unmarshal([]byte(followUpsRaw.String), &t.FollowUps); err != nil {
			return nil, fmt.Errorf("unmarshal follow-ups for %s: %w", id, err)
		}
	}
	if localesRaw.Valid && localesRaw.String != "" {
		if err := json.Unmarshal([]byte(localesRaw.String), &t.TargetLocales); err != nil {
			return nil, fmt.Errorf("unmarshal locales for %s: %w", id, err)
		}
	}
	return t, nil
}

func marshalTypes(types []tasktype.Type) (string, error) {
	if len(types) == 0 {
		return "", nil
	}
	data, err := json.Marshal(types)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
