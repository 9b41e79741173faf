package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
)

// ExerciseProgress returns one point per finished session that contains the
// exercise: heaviest completed set, tonnage, set and rep counts. Oldest first,
// for charting.
func (db *DB) ExerciseProgress(ctx context.Context, userID int, exerciseID uuid.UUID, start, end time.Time) ([]models.ProgressPoint, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT ts.id, ts.started_at,
		        COALESCE(MAX(ss.weight), 0),
		        COALESCE(SUM(ss.weight * ss.reps), 0),
		        COUNT(*)::int,
		        COALESCE(SUM(ss.reps), 0)::int
		 FROM training_sessions ts
		 JOIN session_exercises se ON se.session_id = ts.id
		 JOIN session_sets ss ON ss.session_exercise_id = se.id
		 WHERE ts.user_id = $1 AND se.exercise_id = $2
		   AND ts.completed_at IS NOT NULL
		   AND ts.started_at >= $3 AND ts.started_at < $4
		   AND ss.is_completed
		 GROUP BY ts.id, ts.started_at
		 ORDER BY ts.started_at ASC`,
		userID, exerciseID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying exercise progress: %w", err)
	}
	defer rows.Close()

	var result []models.ProgressPoint
	for rows.Next() {
		var p models.ProgressPoint
		var started time.Time
		if err := rows.Scan(&p.SessionID, &started, &p.MaxWeight, &p.TonnageKg, &p.Sets, &p.Reps); err != nil {
			return nil, fmt.Errorf("scanning progress point: %w", err)
		}
		p.Date = started.Format("2006-01-02")
		result = append(result, p)
	}
	return result, rows.Err()
}

// VolumePeriod holds completed-set totals for one week or month.
type VolumePeriod struct {
	Period     string  `json:"period"`
	Sessions   int     `json:"sessions"`
	Sets       int     `json:"sets"`
	Reps       int     `json:"reps"`
	TonnageKg  float64 `json:"tonnage_kg"`
	NewRecords int     `json:"new_records"`
}

// GetTrainingVolume aggregates completed sets per period, newest first.
// bucket is "1 week" or "1 month".
func (db *DB) GetTrainingVolume(ctx context.Context, userID int, start, end time.Time, bucket string) ([]VolumePeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, ts.started_at)::date AS period,
		        COUNT(DISTINCT ts.id)::int,
		        COUNT(ss.id)::int,
		        COALESCE(SUM(ss.reps), 0)::int,
		        COALESCE(SUM(ss.weight * ss.reps), 0),
		        (SELECT COUNT(*)::int FROM personal_records pr
		         WHERE pr.user_id = $4 AND date_trunc($1, pr.achieved_at)::date = date_trunc($1, ts.started_at)::date)
		 FROM training_sessions ts
		 JOIN session_exercises se ON se.session_id = ts.id
		 LEFT JOIN session_sets ss ON ss.session_exercise_id = se.id AND ss.is_completed
		 WHERE ts.started_at >= $2 AND ts.started_at < $3 AND ts.user_id = $4
		   AND ts.completed_at IS NOT NULL
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training volume: %w", err)
	}
	defer rows.Close()

	var result []VolumePeriod
	for rows.Next() {
		var v VolumePeriod
		var period time.Time
		if err := rows.Scan(&period, &v.Sessions, &v.Sets, &v.Reps, &v.TonnageKg, &v.NewRecords); err != nil {
			return nil, fmt.Errorf("scanning training volume: %w", err)
		}
		v.Period = period.Format("2006-01-02")
		result = append(result, v)
	}
	return result, rows.Err()
}

// truncInterval maps a bucket label to a date_trunc field.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 week", "weekly":
		return "week"
	default:
		return "month"
	}
}
