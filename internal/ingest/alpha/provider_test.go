package alpha

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps everything in memory.
type fakeStore struct {
	exercises map[string]uuid.UUID
	sessions  map[uuid.UUID]*models.SessionSnapshot
	records   []models.PersonalRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exercises: make(map[string]uuid.UUID),
		sessions:  make(map[uuid.UUID]*models.SessionSnapshot),
	}
}

func (f *fakeStore) FindOrCreateExercise(_ context.Context, _ int, name string) (uuid.UUID, error) {
	key := strings.ToLower(name)
	if id, ok := f.exercises[key]; ok {
		return id, nil
	}
	id := uuid.New()
	f.exercises[key] = id
	return id, nil
}

func (f *fakeStore) SaveImportedSession(_ context.Context, snap *models.SessionSnapshot) (bool, error) {
	if _, ok := f.sessions[snap.ID]; ok {
		return false, nil
	}
	f.sessions[snap.ID] = snap
	return true, nil
}

func (f *fakeStore) ListRecords(_ context.Context, userID int, ids []uuid.UUID) ([]models.PersonalRecord, error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.PersonalRecord
	for _, r := range f.records {
		if r.UserID == userID && want[r.ExerciseID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertRecords(_ context.Context, rows []models.PersonalRecord) error {
	f.records = append(f.records, rows...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIngestSampleExport imports the two-session sample and checks counts and
// the records found. The push session is older, so it is evaluated first.
func TestIngestSampleExport(t *testing.T) {
	store := newFakeStore()
	p := NewProvider(store, discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SessionsReceived)
	assert.Equal(t, 2, res.SessionsInserted)
	assert.Equal(t, 0, res.SessionsSkipped)
	// 17 working sets in the legs session, 3 in push; warmups are dropped.
	assert.Equal(t, int64(20), res.SetsInserted)
	// Bench 102.5; hack 115; sumo 70; hyper +35; lunges 10; calf 157.5.
	// Leg raises at +0 are not eligible.
	assert.Equal(t, 6, res.RecordsInserted)
	assert.Len(t, store.records, 6)

	bench := store.exercises["bench press"]
	for _, r := range store.records {
		if r.ExerciseID == bench {
			assert.Equal(t, 102.5, r.Weight)
			assert.Equal(t, 6, r.Reps)
		}
	}
}

// TestIngestIsIdempotent verifies a second import of the same file stores
// nothing and finds no records.
func TestIngestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	p := NewProvider(store, discardLogger())

	_, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	require.NoError(t, err)

	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SessionsInserted)
	assert.Equal(t, 2, res.SessionsSkipped)
	assert.Equal(t, 0, res.RecordsInserted)
	assert.Len(t, store.records, 6)
}

// TestIngestChronologicalRecords verifies that an export listed newest first
// still produces records in training order.
func TestIngestChronologicalRecords(t *testing.T) {
	csv := `"Push B";"2026-03-08 18:00 h";"1:00 hr"
"1. Bench Press · Barbell · 5 reps"
#;KG;REPS;RIR
1;105;5;1

"Push A";"2026-03-01 18:00 h";"1:00 hr"
"1. Bench Press · Barbell · 5 reps"
#;KG;REPS;RIR
1;100;5;1
`
	store := newFakeStore()
	p := NewProvider(store, discardLogger())

	res, err := p.Ingest(context.Background(), strings.NewReader(csv), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordsInserted)
	require.Len(t, store.records, 2)
	assert.Equal(t, 100.0, store.records[0].Weight)
	assert.Equal(t, 105.0, store.records[1].Weight)
}

func TestToSnapshot(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	p := NewProvider(newFakeStore(), discardLogger())
	snap, err := p.toSnapshot(context.Background(), sessions[1], 7, map[string]uuid.UUID{})
	require.NoError(t, err)

	assert.Equal(t, SessionID(7, sessions[1]), snap.ID)
	assert.Equal(t, 7, snap.UserID)
	require.NotNil(t, snap.CompletedAt)
	assert.Equal(t, sessions[1].Date.Add(72*60e9), *snap.CompletedAt)
	require.NotNil(t, snap.DurationSeconds)
	assert.Equal(t, 72*60, *snap.DurationSeconds)

	require.Len(t, snap.Exercises, 1)
	sets := snap.Exercises[0].Sets
	require.Len(t, sets, 3)
	for _, s := range sets {
		assert.True(t, s.IsCompleted)
		require.NotNil(t, s.RPE)
		assert.Equal(t, 10.0, *s.RPE)
	}

	again, err := p.toSnapshot(context.Background(), sessions[1], 7, map[string]uuid.UUID{})
	require.NoError(t, err)
	assert.Equal(t, snap.Exercises[0].ID, again.Exercises[0].ID)
	assert.Equal(t, sets[2].ID, again.Exercises[0].Sets[2].ID)
}

func TestRPEFromRIR(t *testing.T) {
	assert.Nil(t, rpeFromRIR(nil))
	two := 2.0
	assert.Equal(t, 8.0, *rpeFromRIR(&two))
	big := 12.0
	assert.Equal(t, 0.0, *rpeFromRIR(&big))
}
