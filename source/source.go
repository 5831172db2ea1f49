// Package source defines the upstream feed contracts the reconciliation run
// depends on. Adapters return partial date→value mappings: a date missing
// from the map means the upstream had no observation for it, which is normal
// (FX feeds skip weekends and holidays) and handled by the engine, not here.
package source

import (
	"context"
	"errors"
)

// ErrUnavailable marks an upstream fetch failure: network error, non-2xx
// response, or a malformed payload. It is fatal for the current run — merging
// with only one source's data could forward-fill wrong rates.
var ErrUnavailable = errors.New("source unavailable")

// PriceSource fetches per-day close prices of the asset in the reference
// currency. Keys are ISO dates within [start, end]; dates the exchange has
// no candle for are omitted. Implementations page through upstream result
// limits so the caller never sees a truncated range.
type PriceSource interface {
	DailyCloses(ctx context.Context, start, end string) (map[string]float64, error)
}

// RateSource fetches per-day reference→target conversion rates with the same
// partial-mapping contract as PriceSource.
type RateSource interface {
	Rates(ctx context.Context, start, end string) (map[string]float64, error)
}
