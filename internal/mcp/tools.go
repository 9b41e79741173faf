package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// timeRange returns start/end; start defaults to defaultDays before end.
func timeRange(startStr, endStr string, defaultDays int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -defaultDays)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Current personal record per exercise: the heaviest completed set ever logged, with its reps, volume and date. Ties keep the earliest achievement."),
)

var toolGetRecordHistory = mcp.NewTool("get_record_history",
	mcp.WithDescription("Every personal record ever set for one exercise, newest first. Shows how the best lift improved over time."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (case-insensitive, e.g. 'bench press') or exercise ID")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("One training session with all exercises and sets (weight, reps, RPE, completion)."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("Finished training sessions, newest first, with duration, completed sets, tonnage and the number of records set."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Session-by-session progression for one exercise: heaviest completed set, tonnage, sets and reps. Oldest first."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (case-insensitive) or exercise ID")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Weekly or monthly totals of sessions, completed sets, reps, tonnage and new records."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 month'."), mcp.Enum("1 week", "1 month")),
)

// --- Tool handlers ---

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.ds.CurrentRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs)
}

func (h *handlers) getRecordHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	uid := UserIDFromContext(ctx)
	exerciseID, err := h.resolveExercise(ctx, uid, exercise)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recs, err := h.ds.RecordHistory(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_record_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id"), nil
	}

	snap, err := h.ds.GetSessionSnapshot(ctx, UserIDFromContext(ctx), sessionID)
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(snap)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, UserIDFromContext(ctx), start, end)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	uid := UserIDFromContext(ctx)
	exerciseID, err := h.resolveExercise(ctx, uid, exercise)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	points, err := h.ds.ExerciseProgress(ctx, uid, exerciseID, start, end)
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(points)
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 182)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "1 month")

	periods, err := h.ds.GetTrainingVolume(ctx, UserIDFromContext(ctx), start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}

// resolveExercise accepts an exercise ID or name. Names match exactly
// (case-insensitive) first, then by unique substring.
func (h *handlers) resolveExercise(ctx context.Context, uid int, s string) (uuid.UUID, error) {
	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}
	exercises, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp resolve exercise", "error", err)
		return uuid.Nil, fmt.Errorf("query failed: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(s))
	var partial []uuid.UUID
	var names []string
	for _, e := range exercises {
		name := strings.ToLower(e.Name)
		if name == needle {
			return e.ID, nil
		}
		if strings.Contains(name, needle) {
			partial = append(partial, e.ID)
			names = append(names, e.Name)
		}
	}
	switch len(partial) {
	case 1:
		return partial[0], nil
	case 0:
		return uuid.Nil, fmt.Errorf("no exercise matches %q", s)
	default:
		return uuid.Nil, fmt.Errorf("%q is ambiguous: %s", s, strings.Join(names, ", "))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
