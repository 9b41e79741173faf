package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	CurrentRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	RecordHistory(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.PersonalRecord, error)
	GetSessionSnapshot(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionSnapshot, error)
	ListSessions(ctx context.Context, userID int, start, end time.Time) ([]models.SessionSummary, error)
	ExerciseProgress(ctx context.Context, userID int, exerciseID uuid.UUID, start, end time.Time) ([]models.ProgressPoint, error)
	GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
