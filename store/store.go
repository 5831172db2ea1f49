// Package store persists the daily record as a single opaque object. The
// store moves bytes; all record mutation belongs to the reconciliation run.
package store

import (
	"context"
	"errors"

	"github.com/rxfeed/oracle/record"
)

// ErrUnavailable marks a load or save failure of the persisted record. A
// load failure aborts the run before any fetch; a save failure after a merge
// is a lost-work condition the runner reports loudly.
var ErrUnavailable = errors.New("record store unavailable")

// Store loads and saves the daily record.
//
// Load returns an empty record when no prior state exists — "not found" is
// not an error. Save overwrites any prior state and must be atomic from the
// caller's perspective: a partially written record is never observable by a
// later Load.
type Store interface {
	Load(ctx context.Context) (*record.Record, error)
	Save(ctx context.Context, rec *record.Record) error
}
