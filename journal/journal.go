// Package journal records the outcome of every fill run so operators can see
// what a scheduled run added (or why it didn't) without scraping logs.
package journal

import "time"

// Run statuses.
const (
	StatusOK     = "ok"     // entries merged and saved
	StatusNoop   = "noop"   // record already complete through yesterday
	StatusFailed = "failed" // fatal condition, nothing saved
)

// RunRecord is one fill run. RunID is a ULID, so records sort by start time.
type RunRecord struct {
	RunID     string
	StartedAt time.Time

	// Fill range; empty for a noop run.
	StartDate string
	EndDate   string

	Added           int
	SkippedExisting int
	MissingPrice    int
	MissingRate     int

	// Watermark after the run ("" when the record is still empty).
	LastDate string

	Status string
	Error  string
}

type Journal interface {
	RecordRun(RunRecord) error
	Close() error
}
