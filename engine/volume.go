package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VOLUME AGGREGATION
// =============================================================================
// Volume is the sum of policy_value over non-cancelled sales owned by an
// agent set within a half-open [from, to) UTC window. The store filters
// rows; the summation happens here in decimals so tier boundaries compare
// exactly.

// VolumeFor sums non-cancelled sale value for the given agents in [from, to).
// Returns zero when nothing matches.
func (e *Engine) VolumeFor(ctx context.Context, agentIDs []AgentID, from, to time.Time) (decimal.Decimal, error) {
	return volumeFor(ctx, e.store, agentIDs, from, to)
}

func volumeFor(ctx context.Context, s Store, agentIDs []AgentID, from, to time.Time) (decimal.Decimal, error) {
	if len(agentIDs) == 0 {
		return decimal.Zero, nil
	}
	sales, err := s.ActiveSalesInRange(ctx, agentIDs, from.UTC(), to.UTC())
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.PolicyValue)
	}
	return total, nil
}

// periodVolume computes an agent's bonus volume for a period: personal
// sales for level-1 agents, full current downline for everyone else.
func periodVolume(ctx context.Context, s Store, agent Agent, p Period) (decimal.Decimal, error) {
	scope, err := hierarchy{s}.volumeScope(ctx, agent)
	if err != nil {
		return decimal.Zero, err
	}
	return volumeFor(ctx, s, scope, p.Start, p.End)
}
