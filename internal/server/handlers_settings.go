package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/liftlog/internal/ingest"
	"github.com/meltforce/liftlog/internal/storage"
)

// maxImportBytes caps an uploaded export.
const maxImportBytes = 32 << 20

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.storeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.storeError(w, "import logs", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(logs))
}

// handleAlphaImport ingests an Alpha Progression CSV export sent as the
// request body.
func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	if s.alpha == nil {
		writeError(w, http.StatusNotImplemented, "import not configured")
		return
	}
	uid := userIDFromContext(r)
	start := time.Now()

	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), uid)
	s.logImport(uid, "alpha", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("alpha import error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	if result == nil {
		result = &ingest.Result{}
	}
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	entry := storage.ImportLog{
		UserID:           uid,
		Source:           source,
		Status:           status,
		SessionsReceived: result.SessionsReceived,
		SessionsInserted: result.SessionsInserted,
		SetsInserted:     result.SetsInserted,
		RecordsInserted:  result.RecordsInserted,
		DurationMs:       &durationMs,
		ErrorMessage:     errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout,
// detached from the request.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
