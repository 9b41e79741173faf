package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/liftlog/internal/models"
)

// ListRecords returns every record row of userID for the given exercises,
// unordered. The caller derives the current maximum.
func (db *DB) ListRecords(ctx context.Context, userID int, exerciseIDs []uuid.UUID) ([]models.PersonalRecord, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, weight, reps, COALESCE(volume, weight * reps), session_id, achieved_at
		 FROM personal_records
		 WHERE user_id = $1 AND exercise_id = ANY($2::uuid[])`,
		userID, uuidStrings(exerciseIDs))
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.Weight, &r.Reps, &r.Volume, &r.SessionID, &r.AchievedAt); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// InsertRecords appends record rows in a single statement, so either every
// row lands or none does. id is assigned by the database; achieved_at is the
// completion time of the source session, or now when it has none.
func (db *DB) InsertRecords(ctx context.Context, rows []models.PersonalRecord) error {
	if len(rows) == 0 {
		return nil
	}
	query, args := recordInsertQuery(rows)
	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting personal records: %w", err)
	}
	return nil
}

// recordInsertQuery builds a multi-row INSERT for personal_records.
func recordInsertQuery(rows []models.PersonalRecord) (string, []any) {
	const cols = 6
	args := make([]any, 0, len(rows)*cols)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,COALESCE((SELECT completed_at FROM training_sessions WHERE id = $%d), NOW()))",
			base+1, base+2, base+3, base+4, base+5, base+6, base+6,
		))
		args = append(args, r.UserID, r.ExerciseID, r.Weight, r.Reps, r.Volume, r.SessionID)
	}

	query := `INSERT INTO personal_records (user_id, exercise_id, weight, reps, volume, session_id, achieved_at) VALUES ` +
		strings.Join(valueStrings, ",")
	return query, args
}

// CurrentRecords returns the best row per exercise for a user: highest
// weight, earliest achievement on ties.
func (db *DB) CurrentRecords(ctx context.Context, userID int) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT * FROM (
			SELECT DISTINCT ON (pr.exercise_id)
				pr.id, pr.user_id, pr.exercise_id, e.name, pr.weight, pr.reps,
				COALESCE(pr.volume, pr.weight * pr.reps), pr.session_id, pr.achieved_at
			FROM personal_records pr
			JOIN exercises e ON e.id = pr.exercise_id
			WHERE pr.user_id = $1
			ORDER BY pr.exercise_id, pr.weight DESC, pr.achieved_at ASC
		) best
		ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying current records: %w", err)
	}
	defer rows.Close()
	return scanNamedRecords(rows)
}

// RecordHistory returns every record row for one exercise, newest first.
func (db *DB) RecordHistory(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT pr.id, pr.user_id, pr.exercise_id, e.name, pr.weight, pr.reps,
		 COALESCE(pr.volume, pr.weight * pr.reps), pr.session_id, pr.achieved_at
		 FROM personal_records pr
		 JOIN exercises e ON e.id = pr.exercise_id
		 WHERE pr.user_id = $1 AND pr.exercise_id = $2
		 ORDER BY pr.achieved_at DESC, pr.weight DESC`,
		userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying record history: %w", err)
	}
	defer rows.Close()
	return scanNamedRecords(rows)
}

func scanNamedRecords(rows pgx.Rows) ([]models.PersonalRecord, error) {
	var result []models.PersonalRecord
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.ExerciseName, &r.Weight, &r.Reps,
			&r.Volume, &r.SessionID, &r.AchievedAt); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
