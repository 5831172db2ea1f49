package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDay(t *testing.T) {
	t.Parallel()

	next, err := NextDay("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", next) // leap year

	next, err = NextDay("2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", next)

	_, err = NextDay("not-a-date")
	assert.Error(t, err)
}

func TestYesterdayUTC(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-29", YesterdayUTC(now))

	// A non-UTC clock must not shift the UTC calendar day.
	jst := time.FixedZone("JST", 9*3600)
	now = time.Date(2024, 3, 1, 8, 0, 0, 0, jst) // 2024-02-29 23:00 UTC
	assert.Equal(t, "2024-02-28", YesterdayUTC(now))
}

func TestDays(t *testing.T) {
	t.Parallel()

	days, err := Days("2024-01-30", "2024-02-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-02"}, days)

	days, err = Days("2024-01-30", "2024-01-30")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-30"}, days)

	_, err = Days("2024-02-02", "2024-01-30")
	assert.Error(t, err)
}
