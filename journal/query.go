package journal

import (
	"database/sql"
	"fmt"
)

// GetRun returns a single run record by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, started_at, start_date, end_date, added, skipped_existing, missing_price, missing_rate, last_date, status, error
		FROM runs
		WHERE run_id = ?`, runID)

	err := scanRun(row.Scan, &rec)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first. ULIDs are
// time-ordered, so run_id ordering is start-time ordering.
func (j *SQLite) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, started_at, start_date, end_date, added, skipped_existing, missing_price, missing_rate, last_date, status, error
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := scanRun(rows.Scan, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRun(scan func(dest ...any) error, rec *RunRecord) error {
	return scan(
		&rec.RunID,
		&rec.StartedAt,
		&rec.StartDate,
		&rec.EndDate,
		&rec.Added,
		&rec.SkippedExisting,
		&rec.MissingPrice,
		&rec.MissingRate,
		&rec.LastDate,
		&rec.Status,
		&rec.Error,
	)
}
