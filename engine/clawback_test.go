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
// COMMISSION REVERSAL
// =============================================================================

func TestCancelSale_ReversesEveryCommission(t *testing.T) {
	// GIVEN: A full-chain sale with four commissions
	// WHEN: Cancelling the sale
	// THEN: The sale is flagged and each commission gets a negated clawback

	eng := newTestEngine(t)
	ctx := context.Background()
	agent, _, _, _ := fullChain(t, eng)
	sale := mustSale(t, eng, agent, "CB-1", "100000", march)

	result, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCancelled)
	assert.Equal(t, 4, result.CommissionClawbacks)

	got, err := eng.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)

	commissions, err := eng.CommissionsBySale(ctx, sale.ID)
	require.NoError(t, err)
	byCommission := make(map[engine.CommissionID]engine.Clawback)
	clawbacks, err := eng.ListClawbacks(ctx)
	require.NoError(t, err)
	for _, cb := range clawbacks {
		require.NotNil(t, cb.OriginalCommissionID)
		byCommission[*cb.OriginalCommissionID] = cb
	}

	total := decimal.Zero
	for _, c := range commissions {
		cb, ok := byCommission[c.ID]
		require.True(t, ok, "commission %s should have a clawback", c.ID)
		assert.True(t, cb.Amount.Equal(c.Amount.Neg()),
			"clawback should negate the commission exactly")
		assert.Equal(t, sale.ID, cb.SaleID)
		total = total.Add(cb.Amount)
	}
	assert.Equal(t, "-54500", total.String())
}

func TestCancelSale_SecondCancelIsNoOp(t *testing.T) {
	// GIVEN: An already-cancelled sale
	// WHEN: Cancelling it again
	// THEN: Success with AlreadyCancelled and no new clawbacks

	eng := newTestEngine(t)
	ctx := context.Background()
	agent, _, _, _ := fullChain(t, eng)
	sale := mustSale(t, eng, agent, "CB-2", "10000", march)

	_, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	before, err := eng.ListClawbacks(ctx)
	require.NoError(t, err)

	result, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyCancelled)
	assert.Zero(t, result.CommissionClawbacks)
	assert.Zero(t, result.BonusClawbacks)

	after, err := eng.ListClawbacks(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestCancelSale_NotFound(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.CancelSale(context.Background(), engine.SaleID("ghost"))
	require.ErrorIs(t, err, engine.ErrSaleNotFound)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// BONUS ADJUSTMENT
// =============================================================================

func TestCancelSale_AdjustsPaidBonus(t *testing.T) {
	// GIVEN: An agent paid a March bonus on 110,000 of volume (5% = 5500)
	// WHEN: Cancelling the 50,000 sale after the bonus run
	// THEN: A bonus clawback for the recomputed difference is written and
	//       the bonus row itself keeps its original amount

	eng := newTestEngine(t)
	ctx := context.Background()
	agent := mustAgent(t, eng, "Solo", engine.LevelAgent, nil)

	mustSale(t, eng, agent, "ADJ-1", "60000", march)
	sale2 := mustSale(t, eng, agent, "ADJ-2", "50000", march.AddDate(0, 0, 3))

	_, err := eng.CalculateBonuses(ctx, "2025-03", engine.BonusMonthly)
	require.NoError(t, err)

	result, err := eng.CancelSale(ctx, sale2.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CommissionClawbacks)
	assert.Equal(t, 1, result.BonusClawbacks)

	var bonusClawbacks []engine.Clawback
	clawbacks, err := eng.ListClawbacks(ctx)
	require.NoError(t, err)
	for _, cb := range clawbacks {
		if cb.OriginalBonusID != nil {
			bonusClawbacks = append(bonusClawbacks, cb)
		}
	}
	require.Len(t, bonusClawbacks, 1)
	// New volume 60000 -> gold (3%) = 1800; adjustment = 1800 - 5500.
	assert.Equal(t, "-3700", bonusClawbacks[0].Amount.String())

	// The bonus row is never edited; the clawback carries the correction.
	bonuses, err := eng.ListBonuses(ctx)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, "5500", bonuses[0].Amount.String())
	require.NotNil(t, bonusClawbacks[0].OriginalBonusID)
	assert.Equal(t, bonuses[0].ID, *bonusClawbacks[0].OriginalBonusID)
}

func TestCancelSale_AdjustsAllThreePeriodKinds(t *testing.T) {
	// GIVEN: Monthly, quarterly, and annual bonuses all paid for the
	//        period containing the sale
	// WHEN: Cancelling the sale
	// THEN: Each granularity gets its own adjustment clawback

	eng := newTestEngine(t)
	ctx := context.Background()
	agent := mustAgent(t, eng, "Solo", engine.LevelAgent, nil)

	mustSale(t, eng, agent, "3P-1", "60000", march)
	sale := mustSale(t, eng, agent, "3P-2", "50000", march.AddDate(0, 0, 1))

	for _, run := range []struct {
		key string
		typ engine.BonusType
	}{
		{"2025-03", engine.BonusMonthly},
		{"2025-Q1", engine.BonusQuarterly},
		{"2025", engine.BonusAnnual},
	} {
		_, err := eng.CalculateBonuses(ctx, run.key, run.typ)
		require.NoError(t, err)
	}

	result, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.BonusClawbacks)
}

func TestCancelSale_NoBonusMeansNoBonusClawback(t *testing.T) {
	// GIVEN: A sale with no bonus run for its periods
	// WHEN: Cancelling it
	// THEN: Only commission clawbacks are written

	eng := newTestEngine(t)
	ctx := context.Background()
	agent := mustAgent(t, eng, "Solo", engine.LevelAgent, nil)
	sale := mustSale(t, eng, agent, "NB-1", "80000", march)

	result, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CommissionClawbacks)
	assert.Zero(t, result.BonusClawbacks)
}

func TestCancelSale_UplineBonusAdjustedViaSnapshot(t *testing.T) {
	// GIVEN: A team lead bonus paid on downline volume, then the
	//        downline sale cancelled
	// WHEN: Cancelling
	// THEN: The team lead's bonus is adjusted even though the team lead
	//       was not the seller

	eng := newTestEngine(t)
	ctx := context.Background()
	teamLead := mustAgent(t, eng, "TL", engine.LevelTeamLead, nil)
	agent := mustAgent(t, eng, "A", engine.LevelAgent, teamLead)

	sale := mustSale(t, eng, agent, "UP-1", "150000", march)
	_, err := eng.CalculateBonuses(ctx, "2025-03", engine.BonusMonthly)
	require.NoError(t, err)

	result, err := eng.CancelSale(ctx, sale.ID)
	require.NoError(t, err)

	// Agent bonus 150000x5%=7500 and team lead bonus 150000x3%=4500 both
	// drop to zero volume.
	assert.Equal(t, 2, result.BonusClawbacks)

	clawbacks, err := eng.ListClawbacks(ctx)
	require.NoError(t, err)
	adjustments := map[string]bool{}
	for _, cb := range clawbacks {
		if cb.OriginalBonusID != nil {
			adjustments[cb.Amount.String()] = true
		}
	}
	assert.True(t, adjustments["-7500"], "seller bonus fully reversed")
	assert.True(t, adjustments["-4500"], "team lead bonus fully reversed")
}
