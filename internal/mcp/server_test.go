package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

func TestTimeRange(t *testing.T) {
	// Both empty → defaults to the last N days
	start, end, err := timeRange("", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 {
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	start, end, err = timeRange("2024-01-01", "2024-01-31", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Year() != 2024 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	// Start defaults relative to an explicit end
	start, _, err = timeRange("", "2024-03-31", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Month() != 3 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-03-01", start)
	}

	start, _, err = timeRange("2024-06-15T10:30:00Z", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = timeRange("not-a-date", "", 7); err == nil {
		t.Error("expected error for invalid date")
	}
}

// catalogSource serves a fixed exercise list; other methods are unused.
type catalogSource struct {
	DataSource
	exercises []models.Exercise
	err       error
}

func (c *catalogSource) ListExercises(context.Context, int) ([]models.Exercise, error) {
	return c.exercises, c.err
}

func newTestHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestResolveExercise(t *testing.T) {
	bench := models.Exercise{ID: uuid.New(), Name: "Bench Press"}
	incline := models.Exercise{ID: uuid.New(), Name: "Incline Bench Press"}
	squat := models.Exercise{ID: uuid.New(), Name: "Squat"}
	h := newTestHandlers(&catalogSource{exercises: []models.Exercise{bench, incline, squat}})
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  uuid.UUID
	}{
		{"exact beats substring", "bench press", bench.ID},
		{"unique substring", "incline", incline.ID},
		{"surrounding space", "  Squat ", squat.ID},
		{"uuid passthrough", squat.ID.String(), squat.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.resolveExercise(ctx, 1, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveExerciseErrors(t *testing.T) {
	h := newTestHandlers(&catalogSource{exercises: []models.Exercise{
		{ID: uuid.New(), Name: "Bench Press"},
		{ID: uuid.New(), Name: "Incline Bench Press"},
	}})

	_, err := h.resolveExercise(context.Background(), 1, "bench")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = h.resolveExercise(context.Background(), 1, "deadlift")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no exercise matches")

	failing := newTestHandlers(&catalogSource{err: errors.New("connection refused")})
	_, err = failing.resolveExercise(context.Background(), 1, "bench")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// volumeSource records the bucket it was asked for.
type volumeSource struct {
	DataSource
	bucket string
}

func (v *volumeSource) GetTrainingVolume(_ context.Context, _ int, _, _ time.Time, bucket string) ([]storage.VolumePeriod, error) {
	v.bucket = bucket
	return []storage.VolumePeriod{{Period: "2024-01-01", Sessions: 2}}, nil
}

func TestGetTrainingVolumeBucket(t *testing.T) {
	ds := &volumeSource{}
	h := newTestHandlers(ds)

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_training_volume"
	req.Params.Arguments = map[string]any{"bucket": "1 week", "start": "2024-01-01"}

	res, err := h.getTrainingVolume(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "1 week", ds.bucket)

	req.Params.Arguments = map[string]any{"start": "yesterday"}
	res, err = h.getTrainingVolume(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
