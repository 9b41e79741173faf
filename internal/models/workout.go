package models

import (
	"time"

	"github.com/google/uuid"
)

// Exercise is a catalog entry. Global exercises have no owner.
type Exercise struct {
	ID          uuid.UUID `json:"id"`
	UserID      *int      `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscle_group"`
	IsGlobal    bool      `json:"is_global"`
	CreatedAt   time.Time `json:"created_at"`
}

// Workout is a reusable template that sessions are started from.
type Workout struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"user_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises"`
	CreatedAt   time.Time         `json:"created_at"`
}

// WorkoutExercise is a template line: which exercise, in what order, and the
// prescribed sets/reps/weight.
type WorkoutExercise struct {
	ID           uuid.UUID `json:"id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	OrderIndex   int       `json:"order_index"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   *int      `json:"target_reps"`
	TargetWeight *float64  `json:"target_weight"`
	RestSeconds  *int      `json:"rest_seconds"`
}
