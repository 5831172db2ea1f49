package fill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxfeed/oracle/journal"
	"github.com/rxfeed/oracle/record"
	"github.com/rxfeed/oracle/source"
	"github.com/rxfeed/oracle/store"
)

type fakeStore struct {
	rec      *record.Record
	loadErr  error
	saveErr  error
	saves    int
	lastSave *record.Record
}

func (s *fakeStore) Load(ctx context.Context) (*record.Record, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.rec == nil {
		return record.New("USD", "JPY"), nil
	}
	return s.rec, nil
}

func (s *fakeStore) Save(ctx context.Context, rec *record.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.lastSave = rec
	return nil
}

type fakePrices struct {
	closes map[string]float64
	err    error
	calls  []string
}

func (p *fakePrices) DailyCloses(ctx context.Context, start, end string) (map[string]float64, error) {
	p.calls = append(p.calls, start+".."+end)
	if p.err != nil {
		return nil, p.err
	}
	return p.closes, nil
}

type fakeRates struct {
	rates map[string]float64
	err   error
}

func (r *fakeRates) Rates(ctx context.Context, start, end string) (map[string]float64, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.rates, nil
}

type fakeJournal struct {
	runs []journal.RunRecord
}

func (j *fakeJournal) RecordRun(r journal.RunRecord) error {
	j.runs = append(j.runs, r)
	return nil
}

func (j *fakeJournal) Close() error { return nil }

// fixedNow pins "today" to 2024-03-10 UTC, making yesterday 2024-03-09.
func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
}

func seqDays(start string, n int) []string {
	t, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = t.AddDate(0, 0, i).Format("2006-01-02")
	}
	return out
}

func TestRunFillsEmptyRecord(t *testing.T) {
	t.Parallel()

	// Prices every day 03-01..03-09 except 03-05; rates on business days
	// only (03-02/03 and 03-09 are the gaps to forward-fill over).
	prices := map[string]float64{}
	for _, d := range seqDays("2024-03-01", 9) {
		prices[d] = 0.6
	}
	delete(prices, "2024-03-05")

	rates := map[string]float64{
		"2024-03-01": 150,
		"2024-03-04": 151,
		"2024-03-05": 151.5,
		"2024-03-06": 152,
		"2024-03-07": 152.5,
		"2024-03-08": 153,
	}

	st := &fakeStore{}
	j := &fakeJournal{}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: prices},
		Rates:        &fakeRates{rates: rates},
		Journal:      j,
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.NoOp)
	assert.Equal(t, "2024-03-01", res.StartDate)
	assert.Equal(t, "2024-03-09", res.EndDate)
	assert.Equal(t, 8, res.Stats.Added)
	assert.Equal(t, 1, res.Stats.MissingPrice)
	assert.Equal(t, 0, res.Stats.MissingRate)
	assert.Equal(t, "2024-03-09", res.LastDate)
	assert.Equal(t, 8, res.TotalDays)

	require.Equal(t, 1, st.saves)
	saved := st.lastSave
	assert.Equal(t, "2024-03-09", saved.LastDate)
	assert.NotContains(t, saved.Daily, "2024-03-05")

	// Weekend days inherit Friday's rate; Saturday 03-09 inherits 03-08.
	assert.Equal(t, 0.6*150, saved.Daily["2024-03-02"].Target)
	assert.Equal(t, 0.6*150, saved.Daily["2024-03-03"].Target)
	assert.Equal(t, 0.6*153, saved.Daily["2024-03-09"].Target)

	require.Len(t, j.runs, 1)
	assert.Equal(t, journal.StatusOK, j.runs[0].Status)
	assert.Equal(t, 8, j.runs[0].Added)
	assert.NotEmpty(t, j.runs[0].RunID)
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	prices := map[string]float64{}
	for _, d := range seqDays("2024-03-01", 9) {
		prices[d] = 0.6
	}
	rates := map[string]float64{"2024-03-01": 150}

	st := &fakeStore{}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: prices},
		Rates:        &fakeRates{rates: rates},
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, res.Stats.Added)

	// Second run in the same UTC day sees the saved record: empty range.
	st.rec = st.lastSave
	res, err = r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.NoOp)
	assert.Equal(t, 0, res.Stats.Added)
	assert.Equal(t, 1, st.saves)
}

func TestRunNoopRecordsJournal(t *testing.T) {
	t.Parallel()

	rec := record.New("USD", "JPY")
	rec.Daily["2024-03-09"] = record.Entry{Reference: 0.6, Target: 91}
	rec.Normalize()

	j := &fakeJournal{}
	r := &Runner{
		Store:        &fakeStore{rec: rec},
		Prices:       &fakePrices{},
		Rates:        &fakeRates{},
		Journal:      j,
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, "2024-03-09", res.LastDate)

	require.Len(t, j.runs, 1)
	assert.Equal(t, journal.StatusNoop, j.runs[0].Status)
}

func TestRunSourceFailureIsFatal(t *testing.T) {
	t.Parallel()

	srcErr := fmt.Errorf("%w: binance: status 502", source.ErrUnavailable)

	st := &fakeStore{}
	j := &fakeJournal{}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{err: srcErr},
		Rates:        &fakeRates{rates: map[string]float64{"2024-03-01": 150}},
		Journal:      j,
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrUnavailable)

	// No partial save on a failed fetch.
	assert.Equal(t, 0, st.saves)

	require.Len(t, j.runs, 1)
	assert.Equal(t, journal.StatusFailed, j.runs[0].Status)
	assert.Contains(t, j.runs[0].Error, "fetch prices")
}

func TestRunRateFailureIsFatal(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: map[string]float64{"2024-03-01": 0.6}},
		Rates:        &fakeRates{err: fmt.Errorf("%w: frankfurter: timeout", source.ErrUnavailable)},
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrUnavailable)
	assert.Equal(t, 0, st.saves)
}

func TestRunLoadFailureAbortsBeforeFetch(t *testing.T) {
	t.Parallel()

	prices := &fakePrices{closes: map[string]float64{}}
	r := &Runner{
		Store:        &fakeStore{loadErr: fmt.Errorf("%w: bucket gone", store.ErrUnavailable)},
		Prices:       prices,
		Rates:        &fakeRates{},
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Empty(t, prices.calls)
}

func TestRunSaveFailureSurfaces(t *testing.T) {
	t.Parallel()

	saveErr := fmt.Errorf("%w: put object: 503", store.ErrUnavailable)

	j := &fakeJournal{}
	r := &Runner{
		Store:        &fakeStore{saveErr: saveErr},
		Prices:       &fakePrices{closes: map[string]float64{"2024-03-09": 0.6}},
		Rates:        &fakeRates{rates: map[string]float64{"2024-03-09": 150}},
		Journal:      j,
		InitialStart: "2024-03-09",
		Now:          fixedNow,
	}

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	require.Len(t, j.runs, 1)
	assert.Equal(t, journal.StatusFailed, j.runs[0].Status)
	// The journal still shows what the run would have added.
	assert.Equal(t, 1, j.runs[0].Added)
}

func TestRunRangeBootstrapsAndSkipsExisting(t *testing.T) {
	t.Parallel()

	rec := record.New("USD", "JPY")
	rec.Daily["2024-03-02"] = record.Entry{Reference: 0.5, Target: 70}
	rec.Normalize()

	prices := map[string]float64{
		"2024-03-01": 0.6,
		"2024-03-02": 0.6,
		"2024-03-03": 0.6,
	}
	rates := map[string]float64{"2024-03-01": 150}

	st := &fakeStore{rec: rec}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: prices},
		Rates:        &fakeRates{rates: rates},
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	res, err := r.RunRange(context.Background(), "2024-03-01", "2024-03-03")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Added)
	assert.Equal(t, 1, res.Stats.SkippedExisting)
	assert.Equal(t, 3, res.TotalDays)

	// The pre-existing entry is untouched.
	assert.Equal(t, record.Entry{Reference: 0.5, Target: 70}, st.lastSave.Daily["2024-03-02"])
}

func TestRunSavesEvenWhenNothingAdded(t *testing.T) {
	t.Parallel()

	// Every date in range lacks a price: nothing to add, but the record is
	// still written so a load-time repair is never lost.
	st := &fakeStore{}
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: map[string]float64{}},
		Rates:        &fakeRates{rates: map[string]float64{}},
		InitialStart: "2024-03-09",
		Now:          fixedNow,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Stats.Added)
	assert.Equal(t, 1, res.Stats.MissingPrice)
	assert.Equal(t, 1, st.saves)
}

func TestRunPersistsRepairedMeta(t *testing.T) {
	t.Parallel()

	// A stored record with a stale last_date is healed on load; an
	// empty-handed run must still write the healed form back.
	path := filepath.Join(t.TempDir(), "oracle_daily.json")
	legacy := `{"meta":{"version":1,"last_date":"2024-03-01"},"daily":{"2024-03-05":{"USD":0.5,"JPY":75}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	st := store.NewFile(path, "USD", "JPY")
	r := &Runner{
		Store:        st,
		Prices:       &fakePrices{closes: map[string]float64{}},
		Rates:        &fakeRates{},
		InitialStart: "2024-03-01",
		Now:          fixedNow,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// Healed watermark 2024-03-05 drives the range; every day lacks a price.
	assert.Equal(t, "2024-03-06", res.StartDate)
	assert.Equal(t, 0, res.Stats.Added)
	assert.Equal(t, 4, res.Stats.MissingPrice)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_date":"2024-03-05"`)
	assert.Contains(t, string(data), `"USD":0.5`)
}
