package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
)

// namespace seeds the deterministic IDs of imported rows.
var namespace = uuid.MustParse("6f1c2a4e-3b7d-4c55-9a0e-8d2f41b7c913")

// Store is what an import needs from persistence.
type Store interface {
	records.Store
	FindOrCreateExercise(ctx context.Context, userID int, name string) (uuid.UUID, error)
	SaveImportedSession(ctx context.Context, snap *models.SessionSnapshot) (bool, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store Store
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(store Store, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest parses an export, stores every session not seen before and checks
// each new session for personal records. Sessions are processed oldest first
// so record history builds up in training order. Re-importing the same file
// inserts nothing.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date.Before(sessions[j].Date)
	})

	result := &ingest.Result{SessionsReceived: len(sessions)}
	exerciseIDs := make(map[string]uuid.UUID)

	for _, s := range sessions {
		snap, err := p.toSnapshot(ctx, s, userID, exerciseIDs)
		if err != nil {
			return result, err
		}

		inserted, err := p.store.SaveImportedSession(ctx, snap)
		if err != nil {
			return result, fmt.Errorf("saving session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		if !inserted {
			result.SessionsSkipped++
			continue
		}
		result.SessionsInserted++
		result.SetsInserted += countSets(snap)

		n, err := records.EvaluateSession(ctx, snap, userID, p.store)
		if err != nil {
			return result, fmt.Errorf("evaluating records for session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		result.RecordsInserted += n
	}

	p.log.Info("alpha import complete",
		"sessions", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"sets", result.SetsInserted,
		"records", result.RecordsInserted)
	return result, nil
}

// toSnapshot maps an exported session to a finished session. Warmups are
// dropped. Bodyweight-plus sets store the added load as their weight.
func (p *Provider) toSnapshot(ctx context.Context, s models.AlphaSession, userID int, exerciseIDs map[string]uuid.UUID) (*models.SessionSnapshot, error) {
	completed := s.Date.Add(s.Duration)
	duration := int(s.Duration.Seconds())
	snap := &models.SessionSnapshot{
		ID:              SessionID(userID, s),
		UserID:          userID,
		WorkoutName:     s.Name,
		StartedAt:       s.Date,
		CompletedAt:     &completed,
		DurationSeconds: &duration,
	}

	for i, ex := range s.Exercises {
		exID, ok := exerciseIDs[ex.Name]
		if !ok {
			var err error
			exID, err = p.store.FindOrCreateExercise(ctx, userID, ex.Name)
			if err != nil {
				return nil, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
			}
			exerciseIDs[ex.Name] = exID
		}

		seID := uuid.NewSHA1(snap.ID, []byte(strconv.Itoa(i)))
		se := models.SessionExercise{
			ID:           seID,
			ExerciseID:   exID,
			ExerciseName: ex.Name,
			OrderIndex:   i,
			Sets:         make([]models.Set, 0, len(ex.Sets)),
		}
		for j, set := range ex.Sets {
			weight := set.WeightKg
			reps := set.Reps
			se.Sets = append(se.Sets, models.Set{
				ID:          uuid.NewSHA1(seID, []byte(strconv.Itoa(j))),
				OrderIndex:  j,
				Weight:      &weight,
				Reps:        &reps,
				RPE:         rpeFromRIR(set.RIR),
				IsCompleted: true,
			})
		}
		snap.Exercises = append(snap.Exercises, se)
	}
	return snap, nil
}

// SessionID derives a stable session ID from the user, start time and name,
// so the same export row always maps to the same session.
func SessionID(userID int, s models.AlphaSession) uuid.UUID {
	key := strconv.Itoa(userID) + "|" + s.Date.UTC().Format("2006-01-02T15:04") + "|" + s.Name
	return uuid.NewSHA1(namespace, []byte(key))
}

// rpeFromRIR converts reps in reserve to the RPE scale (RPE 10 = 0 RIR).
func rpeFromRIR(rir *float64) *float64 {
	if rir == nil {
		return nil
	}
	rpe := 10 - *rir
	if rpe < 0 {
		rpe = 0
	}
	return &rpe
}

func countSets(snap *models.SessionSnapshot) int64 {
	var n int64
	for _, ex := range snap.Exercises {
		n += int64(len(ex.Sets))
	}
	return n
}
