/*
tiers.go - Performance tier table and bonus rate resolution

PURPOSE:
  Maps (agent level, sales volume) to a bonus rate through ordered
  half-open volume bands. Each level has exactly four bands
  (BRONZE/SILVER/GOLD/PLATINUM) covering [0, inf) with no gaps or
  overlaps, so every volume resolves to exactly one band.

  The table is process-wide static configuration loaded once at startup
  and treated as immutable, which keeps rate resolution pure and
  trivially testable.
*/
package engine

import "github.com/shopspring/decimal"

// TierTable resolves bonus rates from volume bands. Immutable after
// construction.
type TierTable struct {
	tiers []PerformanceTier
}

// NewTierTable builds a table from explicit bands. Callers normally use
// DefaultTiers.
func NewTierTable(tiers []PerformanceTier) *TierTable {
	owned := make([]PerformanceTier, len(tiers))
	copy(owned, tiers)
	return &TierTable{tiers: owned}
}

// DefaultTiers returns the standard sixteen-band table.
func DefaultTiers() *TierTable {
	bound := func(s string) *decimal.Decimal {
		d := dec(s)
		return &d
	}
	return NewTierTable([]PerformanceTier{
		{AgentLevel: LevelAgent, Name: TierBronze, MinVolume: dec("0"), MaxVolume: bound("25000"), BonusRate: dec("0.00")},
		{AgentLevel: LevelAgent, Name: TierSilver, MinVolume: dec("25000"), MaxVolume: bound("50000"), BonusRate: dec("0.02")},
		{AgentLevel: LevelAgent, Name: TierGold, MinVolume: dec("50000"), MaxVolume: bound("100000"), BonusRate: dec("0.03")},
		{AgentLevel: LevelAgent, Name: TierPlatinum, MinVolume: dec("100000"), MaxVolume: nil, BonusRate: dec("0.05")},

		{AgentLevel: LevelTeamLead, Name: TierBronze, MinVolume: dec("0"), MaxVolume: bound("100000"), BonusRate: dec("0.00")},
		{AgentLevel: LevelTeamLead, Name: TierSilver, MinVolume: dec("100000"), MaxVolume: bound("250000"), BonusRate: dec("0.03")},
		{AgentLevel: LevelTeamLead, Name: TierGold, MinVolume: dec("250000"), MaxVolume: bound("500000"), BonusRate: dec("0.05")},
		{AgentLevel: LevelTeamLead, Name: TierPlatinum, MinVolume: dec("500000"), MaxVolume: nil, BonusRate: dec("0.07")},

		{AgentLevel: LevelManager, Name: TierBronze, MinVolume: dec("0"), MaxVolume: bound("500000"), BonusRate: dec("0.00")},
		{AgentLevel: LevelManager, Name: TierSilver, MinVolume: dec("500000"), MaxVolume: bound("1000000"), BonusRate: dec("0.04")},
		{AgentLevel: LevelManager, Name: TierGold, MinVolume: dec("1000000"), MaxVolume: bound("2000000"), BonusRate: dec("0.06")},
		{AgentLevel: LevelManager, Name: TierPlatinum, MinVolume: dec("2000000"), MaxVolume: nil, BonusRate: dec("0.08")},

		{AgentLevel: LevelDirector, Name: TierBronze, MinVolume: dec("0"), MaxVolume: bound("1000000"), BonusRate: dec("0.00")},
		{AgentLevel: LevelDirector, Name: TierSilver, MinVolume: dec("1000000"), MaxVolume: bound("3000000"), BonusRate: dec("0.05")},
		{AgentLevel: LevelDirector, Name: TierGold, MinVolume: dec("3000000"), MaxVolume: bound("5000000"), BonusRate: dec("0.07")},
		{AgentLevel: LevelDirector, Name: TierPlatinum, MinVolume: dec("5000000"), MaxVolume: nil, BonusRate: dec("0.10")},
	})
}

// TierFor returns the band containing volume for the given level.
// ok is false when no band matches.
func (tt *TierTable) TierFor(level Level, volume decimal.Decimal) (PerformanceTier, bool) {
	for _, t := range tt.tiers {
		if t.AgentLevel == level && t.Contains(volume) {
			return t, true
		}
	}
	return PerformanceTier{}, false
}

// RateFor returns the bonus rate for (level, volume). Bands are total per
// level so a miss should not happen, but the lookup must not fail: it
// returns zero when nothing matches.
func (tt *TierTable) RateFor(level Level, volume decimal.Decimal) decimal.Decimal {
	if t, ok := tt.TierFor(level, volume); ok {
		return t.BonusRate
	}
	return decimal.Zero
}

// All returns a copy of every band, ordered by level then ascending volume.
func (tt *TierTable) All() []PerformanceTier {
	out := make([]PerformanceTier, len(tt.tiers))
	copy(out, tt.tiers)
	return out
}
