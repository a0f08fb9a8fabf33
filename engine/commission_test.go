package engine_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// PAYOUT CHAIN TESTS
// =============================================================================

func TestRecordSale_FullUpline_PayoutChain(t *testing.T) {
	// GIVEN: A four-level chain director > manager > team lead > agent
	// WHEN: The agent sells a $100,000 policy
	// THEN: FYC goes to the seller and one override to each manager above

	eng := newTestEngine(t)
	ctx := context.Background()
	agent, teamLead, manager, director := fullChain(t, eng)

	sale := mustSale(t, eng, agent, "POL-100", "100000", march)

	commissions, err := eng.CommissionsBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, commissions, 4)

	byAgent := make(map[engine.AgentID]engine.Commission, len(commissions))
	for _, c := range commissions {
		byAgent[c.AgentID] = c
	}

	assert.Equal(t, engine.CommissionFYC, byAgent[agent.ID].Type)
	assert.Equal(t, "50000", byAgent[agent.ID].Amount.String())

	assert.Equal(t, engine.CommissionOverride, byAgent[teamLead.ID].Type)
	assert.Equal(t, "2000", byAgent[teamLead.ID].Amount.String())
	assert.Equal(t, "1500", byAgent[manager.ID].Amount.String())
	assert.Equal(t, "1000", byAgent[director.ID].Amount.String())

	total := decimal.Zero
	for _, c := range commissions {
		total = total.Add(c.Amount)
	}
	assert.Equal(t, "54500", total.String())
}

func TestRecordSale_SnapshotsFreezeRecipientChain(t *testing.T) {
	// GIVEN: A full chain and one sale
	// WHEN: Reading the sale's hierarchy snapshots
	// THEN: Seller is level 0, ancestors follow in upline order

	eng := newTestEngine(t)
	ctx := context.Background()
	agent, teamLead, manager, director := fullChain(t, eng)

	sale := mustSale(t, eng, agent, "POL-101", "5000", march)

	snapshots, err := eng.SnapshotsBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 4)

	want := []engine.AgentID{agent.ID, teamLead.ID, manager.ID, director.ID}
	for i, snap := range snapshots {
		assert.Equal(t, i, snap.UplineLevel)
		assert.Equal(t, want[i], snap.AgentID)
		assert.Equal(t, sale.ID, snap.SaleID)
	}
}

func TestRecordSale_RootSeller_OnlyFYC(t *testing.T) {
	// GIVEN: A director with no upline
	// WHEN: The director sells directly
	// THEN: Only the FYC commission is paid

	eng := newTestEngine(t)
	ctx := context.Background()
	director := mustAgent(t, eng, "Solo Director", engine.LevelDirector, nil)

	sale := mustSale(t, eng, director, "POL-102", "40000", march)

	commissions, err := eng.CommissionsBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, engine.CommissionFYC, commissions[0].Type)
	assert.Equal(t, "20000", commissions[0].Amount.String())

	snapshots, err := eng.SnapshotsBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestRecordSale_PartialUpline_SkipsMissingRanks(t *testing.T) {
	// GIVEN: An agent reporting directly to a manager (no team lead)
	// WHEN: The agent sells
	// THEN: FYC plus the manager override only

	eng := newTestEngine(t)
	ctx := context.Background()
	manager := mustAgent(t, eng, "Direct Manager", engine.LevelManager, nil)
	agent := mustAgent(t, eng, "Direct Agent", engine.LevelAgent, manager)

	sale := mustSale(t, eng, agent, "POL-103", "10000", march)

	commissions, err := eng.CommissionsBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, commissions, 2)

	byAgent := make(map[engine.AgentID]engine.Commission)
	for _, c := range commissions {
		byAgent[c.AgentID] = c
	}
	assert.Equal(t, "5000", byAgent[agent.ID].Amount.String())
	assert.Equal(t, "150", byAgent[manager.ID].Amount.String())
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestRecordSale_DuplicatePolicyNumber_Rejected(t *testing.T) {
	// GIVEN: A recorded sale
	// WHEN: Recording another sale with the same policy number
	// THEN: ErrDuplicatePolicyNumber, and no second sale exists

	eng := newTestEngine(t)
	ctx := context.Background()
	agent, _, _, _ := fullChain(t, eng)

	mustSale(t, eng, agent, "POL-DUP", "1000", march)

	_, err := eng.RecordSale(ctx, engine.NewSale{
		PolicyNumber: "POL-DUP",
		PolicyValue:  decimal.RequireFromString("2000"),
		AgentID:      agent.ID,
		SaleDate:     march,
	})
	require.ErrorIs(t, err, engine.ErrDuplicatePolicyNumber)
	assert.True(t, engine.IsConflict(err))

	sales, err := eng.ListSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestRecordSale_InvalidInput(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	agent, _, _, _ := fullChain(t, eng)

	_, err := eng.RecordSale(ctx, engine.NewSale{
		PolicyValue: decimal.RequireFromString("100"),
		AgentID:     agent.ID,
	})
	assert.ErrorIs(t, err, engine.ErrInvalidPolicyNumber)

	_, err = eng.RecordSale(ctx, engine.NewSale{
		PolicyNumber: "POL-0",
		PolicyValue:  decimal.Zero,
		AgentID:      agent.ID,
	})
	assert.ErrorIs(t, err, engine.ErrInvalidPolicyValue)

	_, err = eng.RecordSale(ctx, engine.NewSale{
		PolicyNumber: "POL-NEG",
		PolicyValue:  decimal.RequireFromString("-50"),
		AgentID:      agent.ID,
	})
	assert.ErrorIs(t, err, engine.ErrInvalidPolicyValue)

	_, err = eng.RecordSale(ctx, engine.NewSale{
		PolicyNumber: "POL-GHOST",
		PolicyValue:  decimal.RequireFromString("100"),
		AgentID:      engine.AgentID("no-such-agent"),
	})
	assert.ErrorIs(t, err, engine.ErrAgentNotFound)

	// Nothing was persisted by the failed attempts.
	sales, err := eng.ListSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}
