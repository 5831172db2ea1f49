// Package record defines the persisted daily price record and its JSON codec.
//
// The serialized form is the wire contract shared with every consumer of the
// oracle object:
//
//	{
//	  "meta": { "version": 1, "last_date": "2025-01-31" },
//	  "daily": {
//	    "2025-01-30": { "USD": 0.51, "JPY": 76.23 },
//	    "2025-01-31": { "USD": 0.52, "JPY": 77.01 }
//	  }
//	}
//
// meta.last_date always equals the maximal key of daily, or null when daily
// is empty. Readers self-heal: a record with a missing meta block, a missing
// version, or a stale last_date is repaired on decode rather than rejected.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the current schema version written into meta.version.
const Version = 1

// Entry is one day of the record: the asset's close price in the reference
// currency and its conversion into the target currency.
type Entry struct {
	Reference float64
	Target    float64
}

// Record is the persisted root. Daily maps ISO dates (YYYY-MM-DD) to entries.
// LastDate is the watermark: the most recent date the record is complete
// through, or "" when Daily is empty.
type Record struct {
	Version  int
	LastDate string
	Daily    map[string]Entry

	// Currency labels used as JSON keys inside each daily entry, e.g.
	// "USD" and "JPY". Written verbatim on encode; existing objects must
	// keep their key casing across a load/save cycle.
	ReferenceCurrency string
	TargetCurrency    string
}

// New returns an empty record with the given entry currency labels.
func New(referenceCurrency, targetCurrency string) *Record {
	return &Record{
		Version:           Version,
		Daily:             map[string]Entry{},
		ReferenceCurrency: referenceCurrency,
		TargetCurrency:    targetCurrency,
	}
}

// Watermark returns the record's watermark date and whether one is set.
func (r *Record) Watermark() (string, bool) {
	return r.LastDate, r.LastDate != ""
}

// MaxDate returns the chronologically maximal key of Daily, or "" when empty.
// ISO dates sort lexicographically, so plain string comparison is enough.
func (r *Record) MaxDate() string {
	max := ""
	for d := range r.Daily {
		if d > max {
			max = d
		}
	}
	return max
}

// Normalize repairs the watermark invariant: LastDate is recomputed from
// Daily whenever it is unset or inconsistent.
func (r *Record) Normalize() {
	if r.Version == 0 {
		r.Version = Version
	}
	if r.Daily == nil {
		r.Daily = map[string]Entry{}
	}
	max := r.MaxDate()
	if r.LastDate == "" || r.LastDate != max {
		r.LastDate = max
	}
}

// wire types mirror the serialized shape. Entry values are kept as generic
// maps so the currency labels stay configurable.
type wireMeta struct {
	Version  int     `json:"version"`
	LastDate *string `json:"last_date"`
}

type wireRecord struct {
	Meta  *wireMeta                     `json:"meta"`
	Daily map[string]map[string]float64 `json:"daily"`
}

// Encode serializes the record in the compact wire form. The daily entry
// keys are the record's currency labels, written verbatim.
func (r *Record) Encode() ([]byte, error) {
	if r.ReferenceCurrency == "" || r.TargetCurrency == "" {
		return nil, fmt.Errorf("record: currency labels not set")
	}

	refKey := r.ReferenceCurrency
	tgtKey := r.TargetCurrency

	w := wireRecord{
		Meta:  &wireMeta{Version: r.Version},
		Daily: make(map[string]map[string]float64, len(r.Daily)),
	}
	if r.LastDate != "" {
		last := r.LastDate
		w.Meta.LastDate = &last
	}
	for d, e := range r.Daily {
		w.Daily[d] = map[string]float64{
			refKey: e.Reference,
			tgtKey: e.Target,
		}
	}

	return json.Marshal(w)
}

// Decode parses a serialized record, accepting the currency labels in any
// casing (older writers used lowercase keys). Missing or inconsistent meta
// fields are repaired per the package doc.
func Decode(data []byte, referenceCurrency, targetCurrency string) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("record: decode: %w", err)
	}

	r := New(referenceCurrency, targetCurrency)

	for d, values := range w.Daily {
		ref, okRef := lookupCurrency(values, referenceCurrency)
		tgt, okTgt := lookupCurrency(values, targetCurrency)
		if !okRef || !okTgt {
			return nil, fmt.Errorf("record: decode: entry %s missing %s/%s value",
				d, referenceCurrency, targetCurrency)
		}
		r.Daily[d] = Entry{Reference: ref, Target: tgt}
	}

	if w.Meta != nil {
		r.Version = w.Meta.Version
		if w.Meta.LastDate != nil {
			r.LastDate = *w.Meta.LastDate
		}
	}
	r.Normalize()

	return r, nil
}

func lookupCurrency(values map[string]float64, ccy string) (float64, bool) {
	if v, ok := values[ccy]; ok {
		return v, true
	}
	for k, v := range values {
		if strings.EqualFold(k, ccy) {
			return v, true
		}
	}
	return 0, false
}
