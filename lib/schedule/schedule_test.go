package schedule_test

import (
	"testing"
	"time"

	"github.com/fiffu/tickerdigest/lib/models"
	"github.com/fiffu/tickerdigest/lib/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paris = "Europe/Paris"

func localClock(t *testing.T, instant time.Time, tz string) (int, int, int) {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	local := instant.In(loc)
	return local.Hour(), local.Minute(), local.Second()
}

func TestNextRunUTC_StrictlyAfterWithPinnedWallClock(t *testing.T) {
	// 12:30 UTC = 13:30 Paris, past the 08:00 send time.
	from := time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		freq models.Frequency
		want time.Time
	}{
		{models.FrequencyDaily, time.Date(2024, 1, 11, 7, 0, 0, 0, time.UTC)},
		{models.FrequencyWeekly, time.Date(2024, 1, 17, 7, 0, 0, 0, time.UTC)},
		{models.FrequencyMonthly, time.Date(2024, 2, 10, 7, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(string(tc.freq), func(t *testing.T) {
			got, err := schedule.NextRunUTC(tc.freq, paris, 8, 0, from)
			require.NoError(t, err)

			assert.True(t, got.After(from))
			assert.Equal(t, tc.want, got)

			h, m, s := localClock(t, got, paris)
			assert.Equal(t, []int{8, 0, 0}, []int{h, m, s})
		})
	}
}

func TestNextRunUTC_SameDayWhenSendTimeStillAhead(t *testing.T) {
	// 05:00 UTC = 06:00 Paris, before the 08:00 send time.
	from := time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC)

	for _, freq := range []models.Frequency{models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly} {
		t.Run(string(freq), func(t *testing.T) {
			got, err := schedule.NextRunUTC(freq, paris, 8, 0, from)
			require.NoError(t, err)
			assert.Equal(t, time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC), got)
		})
	}
}

func TestNextRunUTC_ExactSendTimeAdvancesOnePeriod(t *testing.T) {
	// Exactly 08:00 Paris; "strictly after" means we roll to the next day.
	from := time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)

	got, err := schedule.NextRunUTC(models.FrequencyDaily, paris, 8, 0, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 11, 7, 0, 0, 0, time.UTC), got)
}

func TestNextRunUTC_Errors(t *testing.T) {
	from := time.Date(2024, 1, 10, 12, 30, 0, 0, time.UTC)

	_, err := schedule.NextRunUTC(models.FrequencyDaily, "Mars/Olympus", 8, 0, from)
	assert.Error(t, err)

	_, err = schedule.NextRunUTC("fortnightly", paris, 8, 0, from)
	assert.Error(t, err)
}

func TestAdvanceFrom_Errors(t *testing.T) {
	prev := time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)

	_, err := schedule.AdvanceFrom(prev, models.FrequencyWeekly, "Mars/Olympus", 8, 0)
	assert.Error(t, err)

	_, err = schedule.AdvanceFrom(prev, "fortnightly", paris, 8, 0)
	assert.Error(t, err)
}

func TestAdvanceFrom_PinsTimeOfDay(t *testing.T) {
	// prev drifted to 10:17 Paris; the advance discards that and re-pins 08:00.
	prev := time.Date(2024, 1, 8, 9, 17, 33, 0, time.UTC)

	got, err := schedule.AdvanceFrom(prev, models.FrequencyDaily, paris, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 9, 7, 0, 0, 0, time.UTC), got)
}

func TestAdvanceFrom_WeeklyCadence(t *testing.T) {
	// 2024-01-08T07:00Z is 08:00 Paris (UTC+1).
	prev := time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)

	got, err := schedule.AdvanceFrom(prev, models.FrequencyWeekly, paris, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), got)
}

func TestAdvanceFrom_MonthlyClampsToShortMonths(t *testing.T) {
	tests := []struct {
		name string
		prev time.Time
		want time.Time
	}{
		{
			"leap february",
			time.Date(2024, 1, 31, 7, 0, 0, 0, time.UTC), // local 2024-01-31T08:00 Paris
			time.Date(2024, 2, 29, 7, 0, 0, 0, time.UTC), // local 2024-02-29T08:00
		},
		{
			"non-leap february",
			time.Date(2023, 1, 31, 7, 0, 0, 0, time.UTC),
			time.Date(2023, 2, 28, 7, 0, 0, 0, time.UTC),
		},
		{
			"31st into 30-day month",
			time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC), // local 2024-03-31T08:00 (UTC+2)
			time.Date(2024, 4, 30, 6, 0, 0, 0, time.UTC),
		},
		{
			"no clamp needed",
			time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC),
			time.Date(2024, 2, 15, 7, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := schedule.AdvanceFrom(tc.prev, models.FrequencyMonthly, paris, 8, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdvanceFrom_DailyAcrossSpringForward(t *testing.T) {
	// Paris enters DST on 2024-03-31. Local 08:00 is preserved, so the UTC
	// gap between consecutive occurrences is 23h, not 24h.
	prev := time.Date(2024, 3, 30, 7, 0, 0, 0, time.UTC) // 08:00 UTC+1

	got, err := schedule.AdvanceFrom(prev, models.FrequencyDaily, paris, 8, 0)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 31, 6, 0, 0, 0, time.UTC), got) // 08:00 UTC+2
	assert.Equal(t, 23*time.Hour, got.Sub(prev))

	h, m, _ := localClock(t, got, paris)
	assert.Equal(t, 8, h)
	assert.Equal(t, 0, m)
}

func TestAdvanceFrom_DailyAcrossFallBack(t *testing.T) {
	// Paris leaves DST on 2024-10-27; the UTC gap stretches to 25h.
	prev := time.Date(2024, 10, 26, 6, 0, 0, 0, time.UTC) // 08:00 UTC+2

	got, err := schedule.AdvanceFrom(prev, models.FrequencyDaily, paris, 8, 0)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 10, 27, 7, 0, 0, 0, time.UTC), got) // 08:00 UTC+1
	assert.Equal(t, 25*time.Hour, got.Sub(prev))
}
