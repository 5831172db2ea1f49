// Package reconcile implements the incremental merge that extends the daily
// record from two independently-gapped upstream series: per-day close prices
// in the reference currency and per-day reference→target conversion rates.
//
// The merge is a pure fold over the calendar dates of the fill range. It
// performs no I/O and never mutates its inputs, so every guarantee (idempotent
// re-runs, append-only history, forward-filled rates) is testable without a
// store or a network.
package reconcile

import (
	"fmt"
	"time"

	"github.com/rxfeed/oracle/record"
)

// Stats summarizes one merge pass.
type Stats struct {
	Added           int // entries appended to the record
	SkippedExisting int // dates already present (re-run idempotency)
	MissingPrice    int // dates the exchange had no close for
	MissingRate     int // dates skipped before any rate was ever observed
}

// Result is the outcome of Merge. Added holds only the new entries; the
// caller merges them into the record. LastDate is the chronologically last
// date added ("" when nothing was). Carry is the final forward-fill rate,
// nil when no rate was observed across the whole pass.
type Result struct {
	Added    map[string]record.Entry
	LastDate string
	Carry    *float64
	Stats    Stats

	// Per-date skip reasons, chronological, for run logging.
	MissingPriceDates []string
	MissingRateDates  []string
}

// FillRange computes the next gap to fill. The range starts the day after
// the watermark (or at initialStart when the record is empty) and ends at
// yesterday in UTC — the current UTC day's upstream data is not final yet.
// ok is false when there is nothing to fill, which is the case whenever the
// record is already complete through yesterday.
func FillRange(watermark, initialStart string, today time.Time) (start, end string, ok bool, err error) {
	if watermark != "" {
		start, err = record.NextDay(watermark)
		if err != nil {
			return "", "", false, fmt.Errorf("watermark: %w", err)
		}
	} else {
		if _, err := record.ParseDate(initialStart); err != nil {
			return "", "", false, fmt.Errorf("initial start date: %w", err)
		}
		start = initialStart
	}

	end = record.YesterdayUTC(today)

	// ISO dates compare lexicographically in chronological order.
	if start > end {
		return "", "", false, nil
	}
	return start, end, true, nil
}

// Merge walks the dates from start to end inclusive and builds the entries to
// append. For each date, in order:
//
//   - A date already in existing is skipped; it still refreshes the carry from
//     rates so a run starting mid-history carries the correct rate forward.
//   - A date with no price is skipped and stays permanently absent.
//   - A date with a fresh rate updates the carry; a date without one inherits
//     the last observed rate (forward fill). If no rate has ever been
//     observed the date is skipped.
//   - Otherwise the entry is price × carry.
//
// carry seeds the forward fill; pass nil unless a prior pass returned one.
// Merge validates its inputs and fails on malformed dates or non-positive
// prices and rates — upstream payloads must never leak bad values into the
// record.
func Merge(existing map[string]record.Entry, prices, rates map[string]float64, start, end string, carry *float64) (Result, error) {
	res := Result{Added: map[string]record.Entry{}}

	days, err := record.Days(start, end)
	if err != nil {
		return Result{}, err
	}
	if err := validatePositive("price", prices); err != nil {
		return Result{}, err
	}
	if err := validatePositive("rate", rates); err != nil {
		return Result{}, err
	}

	// Copy so callers never see their seed mutated.
	if carry != nil {
		c := *carry
		res.Carry = &c
	}

	for _, d := range days {
		rate, hasRate := rates[d]

		if _, ok := existing[d]; ok {
			res.Stats.SkippedExisting++
			if hasRate {
				res.Carry = &rate
			}
			continue
		}

		price, hasPrice := prices[d]
		if !hasPrice {
			res.Stats.MissingPrice++
			res.MissingPriceDates = append(res.MissingPriceDates, d)
			continue
		}

		if hasRate {
			res.Carry = &rate
		} else if res.Carry == nil {
			// Only reachable at the very start of history, before any
			// rate has ever been observed.
			res.Stats.MissingRate++
			res.MissingRateDates = append(res.MissingRateDates, d)
			continue
		}

		res.Added[d] = record.Entry{
			Reference: price,
			Target:    price * *res.Carry,
		}
		res.LastDate = d
		res.Stats.Added++
	}

	return res, nil
}

func validatePositive(kind string, m map[string]float64) error {
	for d, v := range m {
		if _, err := record.ParseDate(d); err != nil {
			return fmt.Errorf("%s map: %w", kind, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s map: non-positive %s %v on %s", kind, kind, v, d)
		}
	}
	return nil
}
