// Package fill drives one reconciliation cycle: load the record, compute the
// gap up to yesterday UTC, fetch both upstream series, merge, save, and
// journal the outcome.
package fill

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/rxfeed/oracle/journal"
	"github.com/rxfeed/oracle/pkg/id"
	"github.com/rxfeed/oracle/reconcile"
	"github.com/rxfeed/oracle/record"
	"github.com/rxfeed/oracle/source"
	"github.com/rxfeed/oracle/store"
)

// Runner wires the collaborators of a fill run.
type Runner struct {
	Store  store.Store
	Prices source.PriceSource
	Rates  source.RateSource

	// Journal is optional; nil disables run journaling.
	Journal journal.Journal

	// InitialStart is the first date to fill when the record is empty.
	InitialStart string

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Result summarizes one run.
type Result struct {
	RunID     string
	NoOp      bool
	StartDate string
	EndDate   string
	Stats     reconcile.Stats

	// Watermark and record size after the run.
	LastDate  string
	TotalDays int
}

// Run executes one incremental fill cycle:
//  1. load the record
//  2. compute the fill range from the watermark to yesterday UTC
//  3. fetch prices and rates for that range
//  4. merge with forward-filled rates
//  5. save and journal
//
// Any source or store failure is fatal: nothing is merged or saved for this
// run. Per-date gaps are not failures; they are skipped, logged, and counted.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	runID := id.New()
	startedAt := now().UTC()

	rec, err := r.Store.Load(ctx)
	if err != nil {
		return r.fail(Result{RunID: runID}, startedAt, fmt.Errorf("load record: %w", err))
	}

	watermark, _ := rec.Watermark()
	start, end, ok, err := reconcile.FillRange(watermark, r.InitialStart, now())
	if err != nil {
		return r.fail(Result{RunID: runID}, startedAt, err)
	}
	if !ok {
		log.Printf("[INFO] record complete through %s, nothing to fill", watermark)
		res := Result{
			RunID:     runID,
			NoOp:      true,
			LastDate:  rec.LastDate,
			TotalDays: len(rec.Daily),
		}
		r.journalRun(res, startedAt, journal.StatusNoop, "")
		return res, nil
	}

	return r.runRange(ctx, runID, startedAt, rec, start, end)
}

// RunRange executes a fill over an explicit [start, end] date range against
// the stored record, regardless of the watermark. Dates already present are
// skipped; the merge semantics are identical to Run. This is the bootstrap
// path for building history in bulk.
func (r *Runner) RunRange(ctx context.Context, start, end string) (Result, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	runID := id.New()
	startedAt := now().UTC()

	rec, err := r.Store.Load(ctx)
	if err != nil {
		return r.fail(Result{RunID: runID}, startedAt, fmt.Errorf("load record: %w", err))
	}

	return r.runRange(ctx, runID, startedAt, rec, start, end)
}

func (r *Runner) runRange(ctx context.Context, runID string, startedAt time.Time, rec *record.Record, start, end string) (Result, error) {
	res := Result{RunID: runID, StartDate: start, EndDate: end}

	log.Printf("[FILL] range %s .. %s", start, end)

	prices, err := r.Prices.DailyCloses(ctx, start, end)
	if err != nil {
		return r.fail(res, startedAt, fmt.Errorf("fetch prices: %w", err))
	}
	rates, err := r.Rates.Rates(ctx, start, end)
	if err != nil {
		return r.fail(res, startedAt, fmt.Errorf("fetch rates: %w", err))
	}

	merged, err := reconcile.Merge(rec.Daily, prices, rates, start, end, nil)
	if err != nil {
		return r.fail(res, startedAt, fmt.Errorf("merge: %w", err))
	}
	res.Stats = merged.Stats

	for _, d := range merged.MissingPriceDates {
		log.Printf("[WARN] %s: no daily close from exchange, skipping", d)
	}
	for _, d := range merged.MissingRateDates {
		log.Printf("[WARN] %s: no fx rate and no prior rate to carry, skipping", d)
	}

	added := make([]string, 0, len(merged.Added))
	for d := range merged.Added {
		added = append(added, d)
	}
	sort.Strings(added)
	for _, d := range added {
		e := merged.Added[d]
		log.Printf("[ADD] %s: ref=%v target=%v", d, e.Reference, e.Target)
		rec.Daily[d] = e
	}
	rec.Normalize()

	res.LastDate = rec.LastDate
	res.TotalDays = len(rec.Daily)

	// Save even when nothing was added: a record whose meta was repaired
	// on load must be persisted in its repaired form.
	if err := r.Store.Save(ctx, rec); err != nil {
		// Lost work: the merge result lives only in this process.
		// Report exactly what would have been added so an operator
		// can re-run.
		log.Printf("[ERROR] save failed after merging %d day(s) (%s .. %s, skipped existing=%d missing price=%d missing rate=%d); re-run to recover",
			merged.Stats.Added, start, end,
			merged.Stats.SkippedExisting, merged.Stats.MissingPrice, merged.Stats.MissingRate)
		return r.fail(res, startedAt, fmt.Errorf("save record: %w", err))
	}

	log.Printf("[SUMMARY] added=%d skipped existing=%d missing price=%d missing rate=%d last_date=%s",
		merged.Stats.Added, merged.Stats.SkippedExisting,
		merged.Stats.MissingPrice, merged.Stats.MissingRate, res.LastDate)

	r.journalRun(res, startedAt, journal.StatusOK, "")
	return res, nil
}

func (r *Runner) fail(res Result, startedAt time.Time, err error) (Result, error) {
	r.journalRun(res, startedAt, journal.StatusFailed, err.Error())
	return res, err
}

func (r *Runner) journalRun(res Result, startedAt time.Time, status, errText string) {
	if r.Journal == nil {
		return
	}
	rec := journal.RunRecord{
		RunID:           res.RunID,
		StartedAt:       startedAt,
		StartDate:       res.StartDate,
		EndDate:         res.EndDate,
		Added:           res.Stats.Added,
		SkippedExisting: res.Stats.SkippedExisting,
		MissingPrice:    res.Stats.MissingPrice,
		MissingRate:     res.Stats.MissingRate,
		LastDate:        res.LastDate,
		Status:          status,
		Error:           errText,
	}
	if err := r.Journal.RecordRun(rec); err != nil {
		// Journal trouble must not fail a run that already saved.
		log.Printf("[WARN] journal run %s: %v", res.RunID, err)
	}
}
