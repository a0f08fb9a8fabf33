package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - The time boundary for volume aggregation
// =============================================================================

// Period is a half-open UTC time window [Start, End) identified by a
// canonical key:
//
//	Monthly   "2025-03"  first of month to first of next month
//	Quarterly "2025-Q1"  quarter start month {1,4,7,10} to next quarter start
//	Annual    "2025"     Jan 1 to Jan 1 of next year
//
// Volume is ALWAYS computed for a period, never at a point in time.
type Period struct {
	Key   string
	Type  BonusType
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) String() string { return p.Key }

// MonthPeriod returns the monthly period for year/month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   fmt.Sprintf("%04d-%02d", year, month),
		Type:  BonusMonthly,
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// QuarterPeriod returns the quarterly period for year/quarter (1..4).
func QuarterPeriod(year, quarter int) Period {
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   fmt.Sprintf("%04d-Q%d", year, quarter),
		Type:  BonusQuarterly,
		Start: start,
		End:   start.AddDate(0, 3, 0),
	}
}

// YearPeriod returns the annual period for year.
func YearPeriod(year int) Period {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   fmt.Sprintf("%04d", year),
		Type:  BonusAnnual,
		Start: start,
		End:   start.AddDate(1, 0, 0),
	}
}

// ParsePeriod parses a period key for the given bonus type. The returned
// Period carries the canonical key ("2025-3" normalizes to "2025-03"), so
// bonus rows written for a period are always found again at cancellation
// time regardless of how the caller spelled the key.
func ParsePeriod(key string, typ BonusType) (Period, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Period{}, ErrInvalidPeriod
	}

	switch typ {
	case BonusMonthly:
		parts := strings.SplitN(key, "-", 2)
		if len(parts) != 2 {
			return Period{}, ErrInvalidPeriod
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil || year <= 0 {
			return Period{}, ErrInvalidPeriod
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return Period{}, ErrInvalidPeriod
		}
		return MonthPeriod(year, time.Month(month)), nil

	case BonusQuarterly:
		parts := strings.SplitN(key, "-", 2)
		if len(parts) != 2 || len(parts[1]) < 2 || (parts[1][0] != 'Q' && parts[1][0] != 'q') {
			return Period{}, ErrInvalidPeriod
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil || year <= 0 {
			return Period{}, ErrInvalidPeriod
		}
		quarter, err := strconv.Atoi(parts[1][1:])
		if err != nil || quarter < 1 || quarter > 4 {
			return Period{}, ErrInvalidPeriod
		}
		return QuarterPeriod(year, quarter), nil

	case BonusAnnual:
		year, err := strconv.Atoi(key)
		if err != nil || year <= 0 {
			return Period{}, ErrInvalidPeriod
		}
		return YearPeriod(year), nil

	default:
		return Period{}, ErrInvalidBonusType
	}
}

// PeriodsForDate returns the monthly, quarterly, and annual periods that
// contain t. Cancellation adjusts bonuses for all three.
func PeriodsForDate(t time.Time) []Period {
	t = t.UTC()
	quarter := (int(t.Month())-1)/3 + 1
	return []Period{
		MonthPeriod(t.Year(), t.Month()),
		QuarterPeriod(t.Year(), quarter),
		YearPeriod(t.Year()),
	}
}
