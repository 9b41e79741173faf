package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// ListExercises returns the global catalog plus the user's own exercises.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, muscle_group, is_global, created_at
		 FROM exercises
		 WHERE is_global OR user_id = $1
		 ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.MuscleGroup, &e.IsGlobal, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CreateExercise adds a user-owned catalog entry.
func (db *DB) CreateExercise(ctx context.Context, userID int, name, muscleGroup string) (*models.Exercise, error) {
	if muscleGroup == "" {
		muscleGroup = "other"
	}
	e := &models.Exercise{ID: uuid.New(), UserID: &userID, Name: strings.TrimSpace(name), MuscleGroup: muscleGroup}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, user_id, name, muscle_group) VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		e.ID, userID, e.Name, e.MuscleGroup).Scan(&e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise %q: %w", name, err)
	}
	return e, nil
}

// FindOrCreateExercise resolves an exercise by case-insensitive name, first
// among the user's own entries and the global catalog, creating a user-owned
// entry if none matches.
func (db *DB) FindOrCreateExercise(ctx context.Context, userID int, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM exercises
		 WHERE lower(name) = lower($2) AND (user_id = $1 OR is_global)
		 ORDER BY is_global ASC
		 LIMIT 1`,
		userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("looking up exercise %q: %w", name, err)
	}

	e, err := db.CreateExercise(ctx, userID, name, "")
	if err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// CreateWorkout stores a template and its exercise lines in one transaction.
// IDs are assigned here; the returned workout carries them.
func (db *DB) CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	w.ID = uuid.New()
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (id, user_id, name, description) VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			w.ID, w.UserID, w.Name, w.Description).Scan(&w.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		return insertWorkoutExercises(ctx, tx, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWorkout renames a template and replaces its exercise lines in one
// transaction. Sessions already started from it keep their own copies.
func (db *DB) UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error) {
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE workouts SET name = $3, description = $4
			 WHERE id = $1 AND user_id = $2
			 RETURNING created_at`,
			w.ID, w.UserID, w.Name, w.Description).Scan(&w.CreatedAt)
		if err != nil {
			return notFound(err, "workout")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_id = $1`, w.ID); err != nil {
			return fmt.Errorf("clearing workout exercises: %w", err)
		}
		return insertWorkoutExercises(ctx, tx, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWorkout removes a template and its lines. Past sessions keep their
// workout name; their workout_id is cleared by the foreign key.
func (db *DB) DeleteWorkout(ctx context.Context, userID int, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout: %w", ErrNotFound)
	}
	return nil
}

// DuplicateWorkout copies a template and its lines under a new ID, with
// " (copy)" appended to the name.
func (db *DB) DuplicateWorkout(ctx context.Context, userID int, workoutID uuid.UUID) (*models.Workout, error) {
	newID := uuid.New()
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		var copied uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (id, user_id, name, description)
			 SELECT $1, user_id, name || ' (copy)', description
			 FROM workouts WHERE id = $2 AND user_id = $3
			 RETURNING id`,
			newID, workoutID, userID).Scan(&copied)
		if err != nil {
			return notFound(err, "workout")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, target_sets, target_reps, target_weight, rest_seconds)
			 SELECT gen_random_uuid(), $1, exercise_id, order_index, target_sets, target_reps, target_weight, rest_seconds
			 FROM workout_exercises WHERE workout_id = $2`,
			newID, workoutID)
		if err != nil {
			return fmt.Errorf("copying workout exercises: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetWorkout(ctx, userID, newID)
}

// NextWorkout suggests the template to train next: the one after the
// template of the last finished session, in newest-first creation order,
// wrapping around. Without history, or when that template is gone, the
// newest template is suggested.
func (db *DB) NextWorkout(ctx context.Context, userID int) (*models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id FROM workouts WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scanning workout ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("workout: %w", ErrNotFound)
	}

	var last *uuid.UUID
	err = db.Pool.QueryRow(ctx,
		`SELECT workout_id FROM training_sessions
		 WHERE user_id = $1 AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC
		 LIMIT 1`,
		userID).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying last session: %w", err)
	}

	return db.GetWorkout(ctx, userID, ids[nextInRotation(ids, last)])
}

// nextInRotation returns the index after last in ids, or 0 when last is nil
// or not present.
func nextInRotation(ids []uuid.UUID, last *uuid.UUID) int {
	if last == nil {
		return 0
	}
	for i, id := range ids {
		if id == *last {
			return (i + 1) % len(ids)
		}
	}
	return 0
}

func insertWorkoutExercises(ctx context.Context, tx pgx.Tx, w *models.Workout) error {
	for i := range w.Exercises {
		we := &w.Exercises[i]
		we.ID = uuid.New()
		we.OrderIndex = i
		_, err := tx.Exec(ctx,
			`INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, target_sets, target_reps, target_weight, rest_seconds)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			we.ID, w.ID, we.ExerciseID, we.OrderIndex, we.TargetSets, we.TargetReps, we.TargetWeight, we.RestSeconds)
		if err != nil {
			return fmt.Errorf("inserting workout exercise %d: %w", i, err)
		}
	}
	return nil
}

// ListWorkouts returns the user's templates without their exercise lines.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, description, created_at
		 FROM workouts
		 WHERE user_id = $1
		 ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout returns one template with its exercise lines in order.
func (db *DB) GetWorkout(ctx context.Context, userID int, workoutID uuid.UUID) (*models.Workout, error) {
	w := &models.Workout{}
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, description, created_at
		 FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.CreatedAt)
	if err != nil {
		return nil, notFound(err, "workout")
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT we.id, we.exercise_id, e.name, we.order_index, we.target_sets, we.target_reps, we.target_weight, we.rest_seconds
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE we.workout_id = $1
		 ORDER BY we.order_index`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var we models.WorkoutExercise
		if err := rows.Scan(&we.ID, &we.ExerciseID, &we.ExerciseName, &we.OrderIndex, &we.TargetSets,
			&we.TargetReps, &we.TargetWeight, &we.RestSeconds); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		w.Exercises = append(w.Exercises, we)
	}
	return w, rows.Err()
}
