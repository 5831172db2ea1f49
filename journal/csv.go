package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends run records to a single CSV file, writing the header
// only when the file is new.
type CSVJournal struct {
	runs *csv.Writer
	rf   *os.File
}

var csvHeader = []string{
	"run_id", "started_at", "start_date", "end_date",
	"added", "skipped_existing", "missing_price", "missing_rate",
	"last_date", "status", "error",
}

func NewCSV(runsPath string) (*CSVJournal, error) {
	info, err := os.Stat(runsPath)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	rf, err := os.OpenFile(runsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	rw := csv.NewWriter(rf)

	if fresh {
		if err := rw.Write(csvHeader); err != nil {
			rf.Close()
			return nil, err
		}
		rw.Flush()
		if err := rw.Error(); err != nil {
			rf.Close()
			return nil, err
		}
	}

	return &CSVJournal{rw, rf}, nil
}

func (j *CSVJournal) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.StartedAt.Format(time.RFC3339),
		r.StartDate,
		r.EndDate,
		strconv.Itoa(r.Added),
		strconv.Itoa(r.SkippedExisting),
		strconv.Itoa(r.MissingPrice),
		strconv.Itoa(r.MissingRate),
		r.LastDate,
		r.Status,
		r.Error,
	})
	if err != nil {
		return err
	}

	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	return j.rf.Close()
}
