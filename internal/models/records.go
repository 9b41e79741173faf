package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonalRecord is one row of the append-only record history. The current
// record for a (user, exercise) pair is the row with the highest weight.
// ID and AchievedAt are assigned by the store on insert.
type PersonalRecord struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int        `json:"user_id"`
	ExerciseID   uuid.UUID  `json:"exercise_id"`
	ExerciseName string     `json:"exercise_name,omitempty"`
	Weight       float64    `json:"weight"`
	Reps         int        `json:"reps"`
	Volume       float64    `json:"volume"`
	SessionID    *uuid.UUID `json:"session_id"`
	AchievedAt   time.Time  `json:"achieved_at"`
}

// ProgressPoint is one session's best lift and tonnage for an exercise.
type ProgressPoint struct {
	SessionID uuid.UUID `json:"session_id"`
	Date      string    `json:"date"`
	MaxWeight float64   `json:"max_weight_kg"`
	TonnageKg float64   `json:"tonnage_kg"`
	Sets      int       `json:"sets"`
	Reps      int       `json:"reps"`
}
