package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// StartSession creates a training session from a workout template. Every
// template line becomes a session exercise (name copied) with target_sets
// open sets prefilled with the target weight and reps.
func (db *DB) StartSession(ctx context.Context, userID int, workoutID uuid.UUID) (*models.SessionSnapshot, error) {
	w, err := db.GetWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO training_sessions (id, user_id, workout_id, workout_name) VALUES ($1, $2, $3, $4)`,
			sessionID, userID, w.ID, w.Name)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}

		for _, we := range w.Exercises {
			seID := uuid.New()
			_, err := tx.Exec(ctx,
				`INSERT INTO session_exercises (id, session_id, exercise_id, exercise_name, order_index)
				 VALUES ($1, $2, $3, $4, $5)`,
				seID, sessionID, we.ExerciseID, we.ExerciseName, we.OrderIndex)
			if err != nil {
				return fmt.Errorf("inserting session exercise %q: %w", we.ExerciseName, err)
			}
			for i := 0; i < we.TargetSets; i++ {
				_, err := tx.Exec(ctx,
					`INSERT INTO session_sets (id, session_exercise_id, order_index, weight, reps, is_completed)
					 VALUES ($1, $2, $3, $4, $5, FALSE)`,
					uuid.New(), seID, i, we.TargetWeight, we.TargetReps)
				if err != nil {
					return fmt.Errorf("inserting session set: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetSessionSnapshot(ctx, userID, sessionID)
}

// GetSessionSnapshot loads a session with its exercises and sets, both ordered
// by order_index.
func (db *DB) GetSessionSnapshot(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionSnapshot, error) {
	snap := &models.SessionSnapshot{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, workout_id, workout_name, started_at, completed_at, duration_seconds
		 FROM training_sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID).Scan(&snap.ID, &snap.UserID, &snap.WorkoutID, &snap.WorkoutName,
		&snap.StartedAt, &snap.CompletedAt, &snap.DurationSeconds)
	if err != nil {
		return nil, notFound(err, "session")
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT se.id, se.exercise_id, se.exercise_name, se.order_index,
		 ss.id, ss.order_index, ss.weight, ss.reps, ss.rpe, ss.is_completed, ss.notes
		 FROM session_exercises se
		 LEFT JOIN session_sets ss ON ss.session_exercise_id = se.id
		 WHERE se.session_id = $1
		 ORDER BY se.order_index, se.id, ss.order_index, ss.created_at`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ex        models.SessionExercise
			setID     *uuid.UUID
			setOrder  *int
			completed *bool
			s         models.Set
		)
		if err := rows.Scan(&ex.ID, &ex.ExerciseID, &ex.ExerciseName, &ex.OrderIndex,
			&setID, &setOrder, &s.Weight, &s.Reps, &s.RPE, &completed, &s.Notes); err != nil {
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
		s.ID = *setID
		s.OrderIndex = *setOrder
		s.IsCompleted = *completed
		snap.Exercises[n-1].Sets = append(snap.Exercises[n-1].Sets, s)
	}
	return snap, rows.Err()
}

// FinishSession stamps completed_at and the duration. A session can be
// finished once; a second call returns ErrAlreadyFinished.
func (db *DB) FinishSession(ctx context.Context, userID int, sessionID uuid.UUID, durationSec int) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE training_sessions
		 SET completed_at = NOW(), duration_seconds = $3
		 WHERE id = $1 AND user_id = $2 AND completed_at IS NULL`,
		sessionID, userID, durationSec)
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var finished bool
	err = db.Pool.QueryRow(ctx,
		`SELECT completed_at IS NOT NULL FROM training_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID).Scan(&finished)
	if err != nil {
		return notFound(err, "session")
	}
	return ErrAlreadyFinished
}

// ListSessions returns finished sessions started in [start, end), newest first,
// with completed-set and tonnage totals and the number of records they set.
func (db *DB) ListSessions(ctx context.Context, userID int, start, end time.Time) ([]models.SessionSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ts.id, ts.workout_name, ts.started_at, ts.completed_at, ts.duration_seconds,
		 (SELECT COUNT(*) FROM session_exercises se WHERE se.session_id = ts.id),
		 COALESCE(agg.sets, 0), COALESCE(agg.volume, 0),
		 (SELECT COUNT(*) FROM personal_records pr WHERE pr.session_id = ts.id)
		 FROM training_sessions ts
		 LEFT JOIN (
			SELECT se.session_id,
			       COUNT(*) FILTER (WHERE ss.is_completed) AS sets,
			       SUM(ss.weight * ss.reps) FILTER (WHERE ss.is_completed) AS volume
			FROM session_exercises se
			JOIN session_sets ss ON ss.session_exercise_id = se.id
			GROUP BY se.session_id
		 ) agg ON agg.session_id = ts.id
		 WHERE ts.user_id = $1 AND ts.completed_at IS NOT NULL
		   AND ts.started_at >= $2 AND ts.started_at < $3
		 ORDER BY ts.started_at DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.WorkoutName, &s.StartedAt, &s.CompletedAt, &s.DurationSeconds,
			&s.Exercises, &s.CompletedSets, &s.VolumeKg, &s.NewRecords); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// UpdateSet applies a patch to a set owned by userID. Sets of finished
// sessions can still be corrected; records already written are not revisited.
func (db *DB) UpdateSet(ctx context.Context, userID int, setID uuid.UUID, p models.SetPatch) (*models.Set, error) {
	s := &models.Set{}
	err := db.Pool.QueryRow(ctx,
		`UPDATE session_sets ss SET
			weight       = COALESCE($3, ss.weight),
			reps         = COALESCE($4, ss.reps),
			rpe          = COALESCE($5, ss.rpe),
			is_completed = COALESCE($6, ss.is_completed),
			notes        = COALESCE($7, ss.notes)
		 FROM session_exercises se
		 JOIN training_sessions ts ON ts.id = se.session_id
		 WHERE ss.id = $1 AND ss.session_exercise_id = se.id AND ts.user_id = $2
		 RETURNING ss.id, ss.order_index, ss.weight, ss.reps, ss.rpe, ss.is_completed, ss.notes`,
		setID, userID, p.Weight, p.Reps, p.RPE, p.IsCompleted, p.Notes,
	).Scan(&s.ID, &s.OrderIndex, &s.Weight, &s.Reps, &s.RPE, &s.IsCompleted, &s.Notes)
	if err != nil {
		return nil, notFound(err, "set")
	}
	return s, nil
}

// AddSet appends an open set to a session exercise, copying weight and reps
// from the current last set.
func (db *DB) AddSet(ctx context.Context, userID int, sessionExerciseID uuid.UUID) (*models.Set, error) {
	s := &models.Set{ID: uuid.New()}
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		var owned bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM session_exercises se
				JOIN training_sessions ts ON ts.id = se.session_id
				WHERE se.id = $1 AND ts.user_id = $2
			)`,
			sessionExerciseID, userID).Scan(&owned)
		if err != nil {
			return fmt.Errorf("checking session exercise: %w", err)
		}
		if !owned {
			return fmt.Errorf("session exercise: %w", ErrNotFound)
		}

		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(order_index) + 1, 0) FROM session_sets WHERE session_exercise_id = $1`,
			sessionExerciseID).Scan(&s.OrderIndex)
		if err != nil {
			return fmt.Errorf("reading set order: %w", err)
		}

		err = tx.QueryRow(ctx,
			`SELECT weight, reps FROM session_sets
			 WHERE session_exercise_id = $1
			 ORDER BY order_index DESC LIMIT 1`,
			sessionExerciseID).Scan(&s.Weight, &s.Reps)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reading last set: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO session_sets (id, session_exercise_id, order_index, weight, reps, is_completed)
			 VALUES ($1, $2, $3, $4, $5, FALSE)`,
			s.ID, sessionExerciseID, s.OrderIndex, s.Weight, s.Reps)
		if err != nil {
			return fmt.Errorf("inserting set: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SaveImportedSession stores an already-finished session with its exercises
// and sets. Returns false when a session with the same ID exists, so
// re-imports are no-ops.
func (db *DB) SaveImportedSession(ctx context.Context, snap *models.SessionSnapshot) (bool, error) {
	inserted := false
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO training_sessions (id, user_id, workout_name, started_at, completed_at, duration_seconds)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			snap.ID, snap.UserID, snap.WorkoutName, snap.StartedAt, snap.CompletedAt, snap.DurationSeconds)
		if err != nil {
			return fmt.Errorf("inserting imported session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		inserted = true

		for _, ex := range snap.Exercises {
			_, err := tx.Exec(ctx,
				`INSERT INTO session_exercises (id, session_id, exercise_id, exercise_name, order_index)
				 VALUES ($1, $2, $3, $4, $5)`,
				ex.ID, snap.ID, ex.ExerciseID, ex.ExerciseName, ex.OrderIndex)
			if err != nil {
				return fmt.Errorf("inserting imported exercise %q: %w", ex.ExerciseName, err)
			}
			for _, s := range ex.Sets {
				_, err := tx.Exec(ctx,
					`INSERT INTO session_sets (id, session_exercise_id, order_index, weight, reps, rpe, is_completed, notes)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
					s.ID, ex.ID, s.OrderIndex, s.Weight, s.Reps, s.RPE, s.IsCompleted, s.Notes)
				if err != nil {
					return fmt.Errorf("inserting imported set: %w", err)
				}
			}
		}
		return nil
	})
	return inserted, err
}
