package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/metrics"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/storage"
)

// Store is the persistence the HTTP API needs. *storage.DB satisfies it.
type Store interface {
	records.Store

	Ping(ctx context.Context) error
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)

	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, userID int, name, muscleGroup string) (*models.Exercise, error)
	CreateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error)
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID int, workoutID uuid.UUID) (*models.Workout, error)
	UpdateWorkout(ctx context.Context, w models.Workout) (*models.Workout, error)
	DeleteWorkout(ctx context.Context, userID int, workoutID uuid.UUID) error
	DuplicateWorkout(ctx context.Context, userID int, workoutID uuid.UUID) (*models.Workout, error)
	NextWorkout(ctx context.Context, userID int) (*models.Workout, error)

	StartSession(ctx context.Context, userID int, workoutID uuid.UUID) (*models.SessionSnapshot, error)
	GetSessionSnapshot(ctx context.Context, userID int, sessionID uuid.UUID) (*models.SessionSnapshot, error)
	FinishSession(ctx context.Context, userID int, sessionID uuid.UUID, durationSec int) error
	ListSessions(ctx context.Context, userID int, start, end time.Time) ([]models.SessionSummary, error)
	UpdateSet(ctx context.Context, userID int, setID uuid.UUID, p models.SetPatch) (*models.Set, error)
	AddSet(ctx context.Context, userID int, sessionExerciseID uuid.UUID) (*models.Set, error)

	CurrentRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error)
	RecordHistory(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.PersonalRecord, error)
	ExerciseProgress(ctx context.Context, userID int, exerciseID uuid.UUID, start, end time.Time) ([]models.ProgressPoint, error)
	GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error)

	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Importer ingests an exported training history for a user.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Options holds the tunables of a Server.
type Options struct {
	APIKey string
	// RecordsTimeout bounds personal record evaluation after a session is
	// finished. Zero means no timeout beyond the request's own.
	RecordsTimeout time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      Store
	alpha   Importer
	log     *slog.Logger
	metrics *metrics.Manager
	opts    Options
	whois   WhoIsClient
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, alphaImporter Importer, m *metrics.Manager, opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		alpha:   alphaImporter,
		log:     log,
		metrics: m,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity resolution from the local dev user to the
// tailnet peer making each request.
func (s *Server) SetTailscale(c WhoIsClient) {
	s.whois = c
}

// MountMCP serves an MCP handler at /mcp behind identity resolution.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identify).Handle("/mcp", h)
	s.router.With(s.identify).Handle("/mcp/*", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log, s.metrics))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)

		// Reads: tailnet membership is the access control.
		r.Get("/me", s.handleMe)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/next", s.handleNextWorkout)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/records", s.handleCurrentRecords)
		r.Get("/records/{exerciseID}", s.handleRecordHistory)
		r.Get("/progress/{exerciseID}", s.handleProgress)
		r.Get("/volume", s.handleVolume)
		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)

		// Writes need the API key as well.
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.opts.APIKey))
			r.Post("/exercises", s.handleCreateExercise)
			r.Post("/workouts", s.handleCreateWorkout)
			r.Put("/workouts/{id}", s.handleUpdateWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)
			r.Post("/workouts/{id}/duplicate", s.handleDuplicateWorkout)
			r.Post("/workouts/{id}/start", s.handleStartSession)
			r.Post("/sessions/{id}/finish", s.handleFinishSession)
			r.Post("/session-exercises/{id}/sets", s.handleAddSet)
			r.Patch("/sets/{id}", s.handleUpdateSet)
			r.Post("/import/alpha", s.handleAlphaImport)
		})
	})
}
