package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/engine"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTierFor_BoundariesAreHalfOpen(t *testing.T) {
	// GIVEN: The default tier table
	// WHEN: Looking up volumes at and around level-1 band boundaries
	// THEN: The lower bound is inclusive, the upper bound exclusive

	tiers := engine.DefaultTiers()

	tier, ok := tiers.TierFor(engine.LevelAgent, dec("24999.99"))
	require.True(t, ok)
	assert.Equal(t, engine.TierBronze, tier.Name)
	assert.True(t, tier.BonusRate.IsZero())

	tier, ok = tiers.TierFor(engine.LevelAgent, dec("25000"))
	require.True(t, ok)
	assert.Equal(t, engine.TierSilver, tier.Name)
	assert.Equal(t, "0.02", tier.BonusRate.String())

	tier, ok = tiers.TierFor(engine.LevelAgent, dec("50000"))
	require.True(t, ok)
	assert.Equal(t, engine.TierGold, tier.Name)

	tier, ok = tiers.TierFor(engine.LevelAgent, dec("100000"))
	require.True(t, ok)
	assert.Equal(t, engine.TierPlatinum, tier.Name)
	assert.Equal(t, "0.05", tier.BonusRate.String())
}

func TestTierFor_TopBandIsUnbounded(t *testing.T) {
	tiers := engine.DefaultTiers()

	tier, ok := tiers.TierFor(engine.LevelDirector, dec("999999999"))
	require.True(t, ok)
	assert.Equal(t, engine.TierPlatinum, tier.Name)
	assert.Equal(t, "0.1", tier.BonusRate.String())
	assert.Nil(t, tier.MaxVolume)
}

func TestTierFor_PerLevelThresholds(t *testing.T) {
	// The same volume maps to different tiers depending on the agent level.
	tiers := engine.DefaultTiers()
	volume := dec("600000")

	tier, ok := tiers.TierFor(engine.LevelTeamLead, volume)
	require.True(t, ok)
	assert.Equal(t, engine.TierPlatinum, tier.Name)

	tier, ok = tiers.TierFor(engine.LevelManager, volume)
	require.True(t, ok)
	assert.Equal(t, engine.TierSilver, tier.Name)

	tier, ok = tiers.TierFor(engine.LevelDirector, volume)
	require.True(t, ok)
	assert.Equal(t, engine.TierBronze, tier.Name)
}

func TestRateFor_UnknownLevelIsZero(t *testing.T) {
	tiers := engine.DefaultTiers()
	assert.True(t, tiers.RateFor(engine.Level(9), dec("100000")).IsZero())
}

func TestDefaultTiers_SixteenContiguousBands(t *testing.T) {
	all := engine.DefaultTiers().All()
	require.Len(t, all, 16)

	perLevel := make(map[engine.Level][]engine.PerformanceTier)
	for _, tier := range all {
		perLevel[tier.AgentLevel] = append(perLevel[tier.AgentLevel], tier)
	}
	for level, bands := range perLevel {
		require.Len(t, bands, 4, "level %d", level)
		for i := 0; i < len(bands)-1; i++ {
			require.NotNil(t, bands[i].MaxVolume)
			assert.True(t, bands[i].MaxVolume.Equal(bands[i+1].MinVolume),
				"level %d band %d upper bound should meet the next lower bound", level, i)
		}
		assert.Nil(t, bands[len(bands)-1].MaxVolume)
	}
}
