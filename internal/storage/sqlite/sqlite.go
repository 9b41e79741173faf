// Package sqlite is a single-file store for sessions and personal records,
// used by the history importer when no Postgres server is available.
package sqlite

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
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS exercises (
	id      TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	name    TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS exercises_owner_name_idx ON exercises (user_id, lower(name));

CREATE TABLE IF NOT EXISTS training_sessions (
	id               TEXT PRIMARY KEY,
	user_id          INTEGER NOT NULL,
	workout_name     TEXT NOT NULL DEFAULT '',
	started_at       TEXT NOT NULL,
	completed_at     TEXT,
	duration_seconds INTEGER
);

CREATE TABLE IF NOT EXISTS session_exercises (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL REFERENCES training_sessions(id) ON DELETE CASCADE,
	exercise_id   TEXT NOT NULL,
	exercise_name TEXT NOT NULL,
	order_index   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_sets (
	id                  TEXT PRIMARY KEY,
	session_exercise_id TEXT NOT NULL REFERENCES session_exercises(id) ON DELETE CASCADE,
	order_index         INTEGER NOT NULL,
	weight              REAL,
	reps                INTEGER,
	rpe                 REAL,
	is_completed        INTEGER NOT NULL DEFAULT 0,
	notes               TEXT
);

CREATE TABLE IF NOT EXISTS personal_records (
	id          TEXT PRIMARY KEY,
	user_id     INTEGER NOT NULL,
	exercise_id TEXT NOT NULL,
	weight      REAL NOT NULL,
	reps        INTEGER NOT NULL,
	volume      REAL NOT NULL,
	session_id  TEXT,
	achieved_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS personal_records_user_exercise_idx ON personal_records (user_id, exercise_id);
`

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed session and record store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check: *Store is a record store.
var _ records.Store = (*Store)(nil)

// Open opens (or creates) the database file at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; the driver serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindOrCreateExercise resolves an exercise by case-insensitive name.
func (s *Store) FindOrCreateExercise(ctx context.Context, userID int, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM exercises WHERE user_id = ? AND lower(name) = lower(?)`,
		userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("looking up exercise %q: %w", name, err)
	}

	id = uuid.New()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, user_id, name) VALUES (?, ?, ?)`,
		id, userID, name); err != nil {
		return uuid.Nil, fmt.Errorf("inserting exercise %q: %w", name, err)
	}
	return id, nil
}

// SaveImportedSession stores a finished session with its exercises and sets.
// Returns false when the session ID already exists.
func (s *Store) SaveImportedSession(ctx context.Context, snap *models.SessionSnapshot) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO training_sessions (id, user_id, workout_name, started_at, completed_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.UserID, snap.WorkoutName, formatTime(snap.StartedAt), formatTimePtr(snap.CompletedAt), snap.DurationSeconds)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	for _, ex := range snap.Exercises {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_exercises (id, session_id, exercise_id, exercise_name, order_index)
			 VALUES (?, ?, ?, ?, ?)`,
			ex.ID, snap.ID, ex.ExerciseID, ex.ExerciseName, ex.OrderIndex); err != nil {
			return false, fmt.Errorf("inserting session exercise %q: %w", ex.ExerciseName, err)
		}
		for _, set := range ex.Sets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_sets (id, session_exercise_id, order_index, weight, reps, rpe, is_completed, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				set.ID, ex.ID, set.OrderIndex, set.Weight, set.Reps, set.RPE, set.IsCompleted, set.Notes); err != nil {
				return false, fmt.Errorf("inserting set: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing session: %w", err)
	}
	return true, nil
}

// GetSessionSnapshot loads a session with its exercises and sets.
func (s *Store) GetSessionSnapshot(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionSnapshot, error) {
	snap := &models.SessionSnapshot{}
	var started string
	var completed sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, workout_name, started_at, completed_at, duration_seconds
		 FROM training_sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID).Scan(&snap.ID, &snap.UserID, &snap.WorkoutName, &started, &completed, &snap.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if snap.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		snap.CompletedAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT se.id, se.exercise_id, se.exercise_name, se.order_index,
		 ss.id, ss.order_index, ss.weight, ss.reps, ss.rpe, ss.is_completed, ss.notes
		 FROM session_exercises se
		 LEFT JOIN session_sets ss ON ss.session_exercise_id = se.id
		 WHERE se.session_id = ?
		 ORDER BY se.order_index, se.id, ss.order_index`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ex        models.SessionExercise
			setID     *uuid.UUID
			setOrder  sql.NullInt64
			completed sql.NullBool
			set       models.Set
		)
		if err := rows.Scan(&ex.ID, &ex.ExerciseID, &ex.ExerciseName, &ex.OrderIndex,
			&setID, &setOrder, &set.Weight, &set.Reps, &set.RPE, &completed, &set.Notes); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		n := len(snap.Exercises)
		if n == 0 || snap.Exercises[n-1].ID != ex.ID {
			ex.Sets = []models.Set{}
			snap.Exercises = append(snap.Exercises, ex)
			n++
		}
		if setID == nil {
			continue
		}
		set.ID = *setID
		set.OrderIndex = int(setOrder.Int64)
		set.IsCompleted = completed.Bool
		snap.Exercises[n-1].Sets = append(snap.Exercises[n-1].Sets, set)
	}
	return snap, rows.Err()
}

// ListRecords returns every record row of userID for the given exercises.
func (s *Store) ListRecords(ctx context.Context, userID int, exerciseIDs []uuid.UUID) ([]models.PersonalRecord, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(exerciseIDs)+1)
	args = append(args, userID)
	for _, id := range exerciseIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(exerciseIDs)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, exercise_id, weight, reps, volume, session_id, achieved_at
		 FROM personal_records
		 WHERE user_id = ? AND exercise_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, false)
}

// InsertRecords appends record rows in one transaction. Each row gets a new
// ID; achieved_at is the source session's completion time, or now.
func (s *Store) InsertRecords(ctx context.Context, rows []models.PersonalRecord) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO personal_records (id, user_id, exercise_id, weight, reps, volume, session_id, achieved_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?,
			         COALESCE((SELECT completed_at FROM training_sessions WHERE id = ?), ?))`,
			uuid.New(), r.UserID, r.ExerciseID, r.Weight, r.Reps, r.Volume, r.SessionID, r.SessionID, now); err != nil {
			return fmt.Errorf("inserting personal record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing personal records: %w", err)
	}
	return nil
}

// CurrentRecords returns the best row per exercise: highest weight, earliest
// achievement on ties. Ordered by exercise name.
func (s *Store) CurrentRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, exercise_id, weight, reps, volume, session_id, achieved_at, name FROM (
			SELECT pr.*, e.name,
			       ROW_NUMBER() OVER (PARTITION BY pr.exercise_id ORDER BY pr.weight DESC, pr.achieved_at ASC) AS rn
			FROM personal_records pr
			JOIN exercises e ON e.id = pr.exercise_id
			WHERE pr.user_id = ?
		 ) WHERE rn = 1
		 ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying current records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows, true)
}

func scanRecords(rows *sql.Rows, named bool) ([]models.PersonalRecord, error) {
	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		var achieved string
		dest := []any{&r.ID, &r.UserID, &r.ExerciseID, &r.Weight, &r.Reps, &r.Volume, &r.SessionID, &achieved}
		if named {
			dest = append(dest, &r.ExerciseName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		t, err := parseTime(achieved)
		if err != nil {
			return nil, err
		}
		r.AchievedAt = t
		result = append(result, r)
	}
	return result, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
