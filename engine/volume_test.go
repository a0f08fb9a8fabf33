package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/engine"
)

func TestVolumeFor_SubSecondSaleAtPeriodStart(t *testing.T) {
	// GIVEN: A sale dated in the first half-second of March
	// WHEN: Summing volume for March and for February
	// THEN: The sale counts toward March, not the preceding period

	eng := newTestEngine(t)
	ctx := context.Background()
	agent := mustAgent(t, eng, "Solo", engine.LevelAgent, nil)

	saleDate := time.Date(2025, time.March, 1, 0, 0, 0, 500_000_000, time.UTC)
	mustSale(t, eng, agent, "POL-EDGE", "30000", saleDate)

	marchStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	aprilStart := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	febStart := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	marchVolume, err := eng.VolumeFor(ctx, []engine.AgentID{agent.ID}, marchStart, aprilStart)
	require.NoError(t, err)
	require.Equal(t, "30000", marchVolume.String(),
		"sale at 00:00:00.5 on March 1 must count toward March")

	febVolume, err := eng.VolumeFor(ctx, []engine.AgentID{agent.ID}, febStart, marchStart)
	require.NoError(t, err)
	require.True(t, febVolume.IsZero())
}
