// Package records detects new personal records in a finished training
// session and appends them to the record history.
//
// The record history is append-only: the current record for a user and
// exercise is the maximum weight across all stored rows. EvaluateSession
// reads the baselines for every exercise in a session with one store call,
// compares in memory, and writes every new record with one more call.
package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

var (
	// ErrStoreRead marks a failed baseline fetch. Nothing was written.
	ErrStoreRead = errors.New("reading personal records")
	// ErrStoreWrite marks a failed bulk insert. The batch is all-or-nothing.
	ErrStoreWrite = errors.New("inserting personal records")
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=records_test

// Store is the persistence boundary for personal records.
type Store interface {
	// ListRecords returns every stored record of userID for the given
	// exercises. Rows come back unordered and unfiltered.
	ListRecords(ctx context.Context, userID int, exerciseIDs []uuid.UUID) ([]models.PersonalRecord, error)
	// InsertRecords persists all rows or none.
	InsertRecords(ctx context.Context, rows []models.PersonalRecord) error
}

// EvaluateSession finds the completed sets in snap that beat the user's best
// known weight for their exercise, inserts one record row per improvement and
// returns how many rows were inserted.
//
// A session without eligible sets returns 0 without touching the store.
// Store failures are returned wrapped in ErrStoreRead or ErrStoreWrite.
func EvaluateSession(ctx context.Context, snap *models.SessionSnapshot, userID int, store Store) (int, error) {
	exerciseIDs := eligibleExercises(snap)
	if len(exerciseIDs) == 0 {
		return 0, nil
	}

	existing, err := store.ListRecords(ctx, userID, exerciseIDs)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	candidates := findImprovements(snap, userID, bestWeights(existing))
	if len(candidates) == 0 {
		return 0, nil
	}

	if err := store.InsertRecords(ctx, candidates); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return len(candidates), nil
}

// Eligible reports whether a set can establish a record: it must be completed
// with a positive weight and a positive rep count.
func Eligible(s models.Set) bool {
	return s.IsCompleted &&
		s.Weight != nil && *s.Weight > 0 &&
		s.Reps != nil && *s.Reps > 0
}

// eligibleExercises returns the distinct exercise IDs with at least one
// eligible set, in first-seen order.
func eligibleExercises(snap *models.SessionSnapshot) []uuid.UUID {
	if snap == nil {
		return nil
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, ex := range snap.Exercises {
		if seen[ex.ExerciseID] {
			continue
		}
		for _, s := range ex.Sets {
			if Eligible(s) {
				seen[ex.ExerciseID] = true
				ids = append(ids, ex.ExerciseID)
				break
			}
		}
	}
	return ids
}

// bestWeights reduces stored rows to the maximum weight per exercise.
func bestWeights(rows []models.PersonalRecord) map[uuid.UUID]float64 {
	best := make(map[uuid.UUID]float64, len(rows))
	for _, r := range rows {
		if r.Weight > best[r.ExerciseID] {
			best[r.ExerciseID] = r.Weight
		}
	}
	return best
}

// findImprovements walks the session in order and emits a candidate every
// time an eligible set strictly beats the running best of its session
// exercise. Each session exercise starts from the stored baseline, so a
// lift logged twice in one session is judged twice against history.
func findImprovements(snap *models.SessionSnapshot, userID int, best map[uuid.UUID]float64) []models.PersonalRecord {
	sessionID := snap.ID
	var out []models.PersonalRecord
	for _, ex := range snap.Exercises {
		running := best[ex.ExerciseID]
		for _, s := range ex.Sets {
			if !Eligible(s) || *s.Weight <= running {
				continue
			}
			running = *s.Weight
			out = append(out, models.PersonalRecord{
				UserID:       userID,
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.ExerciseName,
				Weight:       *s.Weight,
				Reps:         *s.Reps,
				Volume:       *s.Weight * float64(*s.Reps),
				SessionID:    &sessionID,
			})
		}
	}
	return out
}
