package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, started_at, start_date, end_date, added, skipped_existing, missing_price, missing_rate, last_date, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt, r.StartDate, r.EndDate,
		r.Added, r.SkippedExisting, r.MissingPrice, r.MissingRate,
		r.LastDate, r.Status, r.Error,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
