package engine

import "github.com/shopspring/decimal"

// =============================================================================
// COMMISSION RATES - Process-wide static configuration
// =============================================================================
// Rates are compile-time constants with no effective-dated versioning.
// Changing them affects only future calculations; there is no historical
// rate snapshot. Known limitation, kept deliberately.

// fycRate is the first-year commission paid to the selling agent.
var fycRate = dec("0.50")

// overrideRates maps an upline agent's level to its override percentage of a
// subordinate's sale. Levels absent from the table earn no override.
var overrideRates = map[Level]decimal.Decimal{
	LevelTeamLead: dec("0.02"),
	LevelManager:  dec("0.015"),
	LevelDirector: dec("0.01"),
}

// FYCRate returns the first-year commission rate.
func FYCRate() decimal.Decimal { return fycRate }

// OverrideRate returns the override rate configured for an upline level.
// ok is false when the level earns no override.
func OverrideRate(level Level) (rate decimal.Decimal, ok bool) {
	rate, ok = overrideRates[level]
	return rate, ok
}
