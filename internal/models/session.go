package models

import (
	"time"

	"github.com/google/uuid"
)

// Set is one performed block of reps within a session exercise.
// Weight and Reps are nil until the user enters them.
type Set struct {
	ID          uuid.UUID `json:"id"`
	OrderIndex  int       `json:"order_index"`
	Weight      *float64  `json:"weight"`
	Reps        *int      `json:"reps"`
	RPE         *float64  `json:"rpe,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	Notes       *string   `json:"notes,omitempty"`
}

// SessionExercise is one exercise instance within a training session.
// ExerciseName is copied from the catalog when the session starts so that
// later renames do not rewrite history.
type SessionExercise struct {
	ID           uuid.UUID `json:"id"`
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	OrderIndex   int       `json:"order_index"`
	Sets         []Set     `json:"sets"`
}

// SessionSnapshot is a training session with its exercises and sets.
type SessionSnapshot struct {
	ID              uuid.UUID         `json:"id"`
	UserID          int               `json:"user_id"`
	WorkoutID       *uuid.UUID        `json:"workout_id,omitempty"`
	WorkoutName     string            `json:"workout_name"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	DurationSeconds *int              `json:"duration_seconds,omitempty"`
	Exercises       []SessionExercise `json:"exercises"`
}

// Finished reports whether the session has been marked complete.
func (s *SessionSnapshot) Finished() bool {
	return s.CompletedAt != nil
}

// SessionSummary is a history row for a finished session.
type SessionSummary struct {
	ID              uuid.UUID  `json:"id"`
	WorkoutName     string     `json:"workout_name"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	DurationSeconds *int       `json:"duration_seconds"`
	Exercises       int        `json:"exercises"`
	CompletedSets   int        `json:"completed_sets"`
	VolumeKg        float64    `json:"volume_kg"`
	NewRecords      int        `json:"new_records"`
}

// SetPatch holds the editable fields of a set. Nil fields are left unchanged.
type SetPatch struct {
	Weight      *float64 `json:"weight"`
	Reps        *int     `json:"reps"`
	RPE         *float64 `json:"rpe"`
	IsCompleted *bool    `json:"is_completed"`
	Notes       *string  `json:"notes"`
}
