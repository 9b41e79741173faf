package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleCurrentRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.db.CurrentRecords(r.Context(), userIDFromContext(r))
	if err != nil {
		s.storeError(w, "current records", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	recs, err := s.db.RecordHistory(r.Context(), userIDFromContext(r), exerciseID)
	if err != nil {
		s.storeError(w, "record history", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	points, err := s.db.ExerciseProgress(r.Context(), userIDFromContext(r), exerciseID, start, end)
	if err != nil {
		s.storeError(w, "exercise progress", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(points))
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket := "1 month"
	if r.URL.Query().Get("agg") == "weekly" {
		bucket = "1 week"
	}
	periods, err := s.db.GetTrainingVolume(r.Context(), userIDFromContext(r), start, end, bucket)
	if err != nil {
		s.storeError(w, "training volume", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(periods))
}

// storeError maps storage errors to a response. Not-found becomes 404;
// anything else is logged and reported as a 500 without details.
func (s *Server) storeError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	default:
		s.log.Error("store error", "what", what, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load "+what)
	}
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseTimeRange reads start/end query parameters (RFC 3339 or YYYY-MM-DD).
// Without start, the range is the last defaultDays days.
func parseTimeRange(r *http.Request, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}

	if startStr == "" {
		start = end.AddDate(0, 0, -defaultDays)
		return
	}
	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return
}
