package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const runColumns = "id, workflow, session_id, session_dir, user_prompt, emotional_state, state, status, intent_kind, music_type, music_kind, artifact_path, placeholder, error_message, error_kind, created_at, updated_at, finished_at"

// ErrRunNotFound reports an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run history backed by SQLite.
type Store struct {
	db    *sql.DB
	path  string
	clock func() time.Time
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("runstore: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

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

	store := &Store{db: db, path: path, clock: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// timeLayout keeps a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) now() string {
	return s.clock().UTC().Format(timeLayout)
}

// Begin inserts a running entry and returns it with its assigned id.
func (s *Store) Begin(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.Workflow) == "" {
		return nil, errors.New("runstore: workflow required")
	}
	run.ID = uuid.NewString()
	run.Status = StatusRunning
	timestamp := s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, workflow, session_id, session_dir, user_prompt, emotional_state,
            state, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Workflow,
		nullableString(run.SessionID),
		nullableString(run.SessionDir),
		nullableString(run.UserPrompt),
		nullableString(run.EmotionalState),
		run.State,
		run.Status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, run.ID)
}

// Transition records a state change and makes it the run's current state.
func (s *Store) Transition(ctx context.Context, id, state string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := s.now()
	res, err := tx.ExecContext(ctx, "UPDATE runs SET state = ?, updated_at = ? WHERE id = ?", state, timestamp, id)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO run_transitions (run_id, state, at) VALUES (?, ?, ?)", id, state, timestamp); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return tx.Commit()
}

// Finish stores the outcome fields of run and stamps finished_at.
func (s *Store) Finish(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New("runstore: finish requires a run id")
	}
	timestamp := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET
            session_id = ?, session_dir = ?, state = ?, status = ?, intent_kind = ?,
            music_type = ?, music_kind = ?, artifact_path = ?, placeholder = ?,
            error_message = ?, error_kind = ?, updated_at = ?, finished_at = ?
        WHERE id = ?`,
		nullableString(run.SessionID),
		nullableString(run.SessionDir),
		run.State,
		run.Status,
		nullableString(run.IntentKind),
		nullableString(run.MusicType),
		nullableString(run.MusicKind),
		nullableString(run.ArtifactPath),
		boolToInt(run.Placeholder),
		nullableString(run.ErrorMessage),
		nullableString(run.ErrorKind),
		timestamp,
		timestamp,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// Get returns one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first, optionally filtered by
// status. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + runColumns + " FROM runs"
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Transitions returns the recorded state changes of a run in order.
func (s *Store) Transitions(ctx context.Context, id string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT state, at FROM run_transitions WHERE run_id = ? ORDER BY id", id)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var state, at string
		if err := rows.Scan(&state, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transitions = append(transitions, Transition{State: state, At: parseTime(at)})
	}
	return transitions, rows.Err()
}

// MarkAbandoned fails runs still marked running, typically left behind by a
// crashed process. It returns the number of runs updated.
func (s *Store) MarkAbandoned(ctx context.Context) (int64, error) {
	timestamp := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, error_kind = ?, updated_at = ?, finished_at = ?
        WHERE status = ?`,
		StatusFailed, "run abandoned before completion", "internal", timestamp, timestamp, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned runs: %w", err)
	}
	return res.RowsAffected()
}
