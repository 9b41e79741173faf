package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

type createExerciseRequest struct {
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
}

type createWorkoutRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Exercises   []struct {
		ExerciseID   uuid.UUID `json:"exercise_id"`
		TargetSets   int       `json:"target_sets"`
		TargetReps   *int      `json:"target_reps"`
		TargetWeight *float64  `json:"target_weight"`
		RestSeconds  *int      `json:"rest_seconds"`
	} `json:"exercises"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.db.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		s.storeError(w, "exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(exercises))
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	e, err := s.db.CreateExercise(r.Context(), userIDFromContext(r), req.Name, req.MuscleGroup)
	if err != nil {
		s.storeError(w, "exercise", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.db.ListWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		s.storeError(w, "workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(workouts))
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	workout, err := s.db.GetWorkout(r.Context(), userIDFromContext(r), workoutID)
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// workout validates the request and builds the template it describes. The
// returned string is the client-facing error, empty when valid.
func (req createWorkoutRequest) workout(userID int) (models.Workout, string) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Workout{}, "name is required"
	}
	w := models.Workout{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	for _, ex := range req.Exercises {
		if ex.ExerciseID == uuid.Nil {
			return models.Workout{}, "exercise_id is required"
		}
		if ex.TargetSets < 0 {
			return models.Workout{}, "target_sets must not be negative"
		}
		w.Exercises = append(w.Exercises, models.WorkoutExercise{
			ExerciseID:   ex.ExerciseID,
			TargetSets:   ex.TargetSets,
			TargetReps:   ex.TargetReps,
			TargetWeight: ex.TargetWeight,
			RestSeconds:  ex.RestSeconds,
		})
	}
	return w, ""
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	workout, msg := req.workout(userIDFromContext(r))
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := s.db.CreateWorkout(r.Context(), workout)
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateWorkout replaces a template's name, description and lines.
func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	workout, msg := req.workout(userIDFromContext(r))
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	workout.ID = workoutID

	updated, err := s.db.UpdateWorkout(r.Context(), workout)
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteWorkout(r.Context(), userIDFromContext(r), workoutID); err != nil {
		s.storeError(w, "workout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateWorkout(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	copied, err := s.db.DuplicateWorkout(r.Context(), userIDFromContext(r), workoutID)
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusCreated, copied)
}

// handleNextWorkout answers 404 when the user has no templates.
func (s *Server) handleNextWorkout(w http.ResponseWriter, r *http.Request) {
	next, err := s.db.NextWorkout(r.Context(), userIDFromContext(r))
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}
