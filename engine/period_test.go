package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/engine"
)

func TestParsePeriod_Monthly_NormalizesKey(t *testing.T) {
	// GIVEN: A sloppy monthly key without zero padding
	// WHEN: Parsing it
	// THEN: The canonical key and half-open month window come back

	p, err := engine.ParsePeriod("2025-3", engine.BonusMonthly)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", p.Key)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestParsePeriod_Quarterly(t *testing.T) {
	p, err := engine.ParsePeriod("2025-Q4", engine.BonusQuarterly)
	require.NoError(t, err)
	assert.Equal(t, "2025-Q4", p.Key)
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), p.End)

	// Lower-case quarter marker is accepted and canonicalized.
	p, err = engine.ParsePeriod("2025-q1", engine.BonusQuarterly)
	require.NoError(t, err)
	assert.Equal(t, "2025-Q1", p.Key)
}

func TestParsePeriod_Annual(t *testing.T) {
	p, err := engine.ParsePeriod("2025", engine.BonusAnnual)
	require.NoError(t, err)
	assert.Equal(t, "2025", p.Key)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestParsePeriod_Invalid(t *testing.T) {
	cases := []struct {
		key string
		typ engine.BonusType
	}{
		{"", engine.BonusMonthly},
		{"2025", engine.BonusMonthly},
		{"2025-13", engine.BonusMonthly},
		{"2025-00", engine.BonusMonthly},
		{"2025-Q5", engine.BonusQuarterly},
		{"2025-4", engine.BonusQuarterly},
		{"20xx", engine.BonusAnnual},
	}
	for _, tc := range cases {
		_, err := engine.ParsePeriod(tc.key, tc.typ)
		assert.ErrorIs(t, err, engine.ErrInvalidPeriod, "key %q type %s", tc.key, tc.typ)
	}

	_, err := engine.ParsePeriod("2025-03", engine.BonusType("Weekly"))
	assert.ErrorIs(t, err, engine.ErrInvalidBonusType)
}

func TestPeriod_Contains_HalfOpen(t *testing.T) {
	p := engine.MonthPeriod(2025, time.March)

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(p.End), "period end is exclusive")
	assert.False(t, p.Contains(p.Start.Add(-time.Second)))
}

func TestPeriodsForDate_CoversAllThreeGranularities(t *testing.T) {
	// GIVEN: A date in mid-August 2025
	// WHEN: Resolving its periods
	// THEN: The containing month, quarter, and year come back in order

	d := time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)
	periods := engine.PeriodsForDate(d)
	require.Len(t, periods, 3)

	assert.Equal(t, "2025-08", periods[0].Key)
	assert.Equal(t, engine.BonusMonthly, periods[0].Type)
	assert.Equal(t, "2025-Q3", periods[1].Key)
	assert.Equal(t, engine.BonusQuarterly, periods[1].Type)
	assert.Equal(t, "2025", periods[2].Key)
	assert.Equal(t, engine.BonusAnnual, periods[2].Type)

	for _, p := range periods {
		assert.True(t, p.Contains(d), "period %s should contain the date", p.Key)
	}
}
