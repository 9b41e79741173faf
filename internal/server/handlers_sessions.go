package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/records"
	"github.com/meltforce/liftlog/internal/storage"
)

type finishRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

type finishResponse struct {
	Finished     bool   `json:"finished"`
	NewRecords   int    `json:"new_records"`
	RecordsError string `json:"records_error,omitempty"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	workoutID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	snap, err := s.db.StartSession(r.Context(), userIDFromContext(r), workoutID)
	if err != nil {
		s.storeError(w, "workout", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	snap, err := s.db.GetSessionSnapshot(r.Context(), userIDFromContext(r), sessionID)
	if err != nil {
		s.storeError(w, "session", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.db.ListSessions(r.Context(), userIDFromContext(r), start, end)
	if err != nil {
		s.storeError(w, "sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sessions))
}

// handleFinishSession marks the session finished, then looks for new
// personal records. The finish is committed before evaluation starts; a
// failed evaluation is reported in the body but never undoes it.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req finishRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	if req.DurationSeconds < 0 {
		writeError(w, http.StatusBadRequest, "duration_seconds must not be negative")
		return
	}

	uid := userIDFromContext(r)
	if err := s.db.FinishSession(r.Context(), uid, sessionID, req.DurationSeconds); err != nil {
		if errors.Is(err, storage.ErrAlreadyFinished) {
			writeError(w, http.StatusConflict, "session already finished")
			return
		}
		s.storeError(w, "session", err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterFinished.Inc()
	}

	resp := finishResponse{Finished: true}
	n, err := s.evaluateRecords(r.Context(), uid, sessionID)
	if err != nil {
		s.log.Error("records evaluation failed", "session", sessionID, "error", err)
		resp.RecordsError = "failed to evaluate personal records"
	} else {
		resp.NewRecords = n
	}
	s.log.Info("session finished", "session", sessionID, "new_records", resp.NewRecords)
	writeJSON(w, http.StatusOK, resp)
}

// evaluateRecords loads the finished session and runs the record engine on
// it under the configured timeout.
func (s *Server) evaluateRecords(ctx context.Context, uid int, sessionID uuid.UUID) (n int, err error) {
	if s.opts.RecordsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RecordsTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveEvaluation(time.Since(start), n, err)
		}
	}()

	snap, err := s.db.GetSessionSnapshot(ctx, uid, sessionID)
	if err != nil {
		return 0, err
	}
	return records.EvaluateSession(ctx, snap, uid, s.db)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	setID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var patch models.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if (patch.Weight != nil && *patch.Weight < 0) || (patch.Reps != nil && *patch.Reps < 0) {
		writeError(w, http.StatusBadRequest, "weight and reps must not be negative")
		return
	}
	set, err := s.db.UpdateSet(r.Context(), userIDFromContext(r), setID, patch)
	if err != nil {
		s.storeError(w, "set", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	seID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	set, err := s.db.AddSet(r.Context(), userIDFromContext(r), seID)
	if err != nil {
		s.storeError(w, "session exercise", err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}
