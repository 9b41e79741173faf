package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's training log.
type DataStats struct {
	TotalSessions    int64             `json:"total_sessions"`
	FinishedSessions int64             `json:"finished_sessions"`
	TotalSets        int64             `json:"total_completed_sets"`
	TotalRecords     int64             `json:"total_records"`
	TonnageKg        float64           `json:"tonnage_kg"`
	EarliestSession  *time.Time        `json:"earliest_session"`
	LatestSession    *time.Time        `json:"latest_session"`
	SessionsByName   []WorkoutNameStat `json:"sessions_by_workout"`
}

// WorkoutNameStat holds summary stats for sessions sharing a workout name.
type WorkoutNameStat struct {
	Name          string  `json:"name"`
	Count         int64   `json:"count"`
	TotalDuration float64 `json:"total_duration_sec"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(completed_at), MIN(started_at), MAX(started_at)
		 FROM training_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.FinishedSessions, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(ss.weight * ss.reps), 0)
		 FROM session_sets ss
		 JOIN session_exercises se ON se.id = ss.session_exercise_id
		 JOIN training_sessions ts ON ts.id = se.session_id
		 WHERE ts.user_id = $1 AND ss.is_completed`, userID,
	).Scan(&stats.TotalSets, &stats.TonnageKg)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM personal_records WHERE user_id = $1`, userID,
	).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT workout_name, COUNT(*), COALESCE(SUM(duration_seconds), 0)
		 FROM training_sessions
		 WHERE user_id = $1 AND completed_at IS NOT NULL
		 GROUP BY workout_name
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by workout: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutNameStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalDuration); err != nil {
			return nil, fmt.Errorf("scanning workout stat: %w", err)
		}
		stats.SessionsByName = append(stats.SessionsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
