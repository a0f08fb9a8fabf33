/*
clawback.go - Sale cancellation and the clawback ledger

PURPOSE:
  CancelSale is the one-way active -> cancelled transition. On the first
  cancellation, in a single transaction:
    1. flip is_cancelled on the sale
    2. reverse every commission tied to the sale (one Clawback each,
       amount = -commission.amount)
    3. re-derive the affected agents from the sale's HierarchySnapshot
       rows (who was actually paid, immune to later reorgs)
    4. for the sale's month, quarter, and year: where an affected agent
       already has a Bonus row, recompute what that bonus would be from
       current non-cancelled sales (using the agent's CURRENT downline)
       and record the signed difference as a bonus Clawback

  Cancelling an already-cancelled sale is a successful no-op. The Bonus
  row itself is never touched; the Clawback ledger alone carries the
  correction, so listed bonuses intentionally show the original figure.
*/
package engine

import "context"

// bonusAdjustmentTolerance suppresses immaterial float-scale residue:
// adjustments at or below it write no clawback.
var bonusAdjustmentTolerance = dec("0.001")

// CancelResult reports what one cancellation did.
type CancelResult struct {
	AlreadyCancelled    bool
	CommissionClawbacks int
	BonusClawbacks      int
}

// CancelSale cancels a sale and writes all resulting clawbacks atomically.
func (e *Engine) CancelSale(ctx context.Context, id SaleID) (CancelResult, error) {
	var result CancelResult
	err := e.store.WithTx(ctx, func(s Store) error {
		sale, err := s.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrSaleNotFound
		}
		if sale.IsCancelled {
			result.AlreadyCancelled = true
			return nil
		}

		if err := s.MarkSaleCancelled(ctx, id); err != nil {
			return err
		}
		now := e.now()

		// Reverse every commission paid for this sale.
		commissions, err := s.CommissionsBySale(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range commissions {
			clawback := Clawback{
				ID:                   ClawbackID(newID()),
				Amount:               c.Amount.Neg(),
				OriginalCommissionID: &c.ID,
				SaleID:               id,
				ProcessedDate:        now,
			}
			if err := s.CreateClawback(ctx, clawback); err != nil {
				return err
			}
			result.CommissionClawbacks++
		}

		// The snapshot is the authoritative "who was paid" set.
		snapshots, err := s.SnapshotsBySale(ctx, id)
		if err != nil {
			return err
		}
		seen := make(map[AgentID]bool, len(snapshots))
		var affected []AgentID
		for _, snap := range snapshots {
			if !seen[snap.AgentID] {
				seen[snap.AgentID] = true
				affected = append(affected, snap.AgentID)
			}
		}

		for _, period := range PeriodsForDate(sale.SaleDate) {
			for _, agentID := range affected {
				agent, err := s.GetAgent(ctx, agentID)
				if err != nil {
					return err
				}
				if agent == nil {
					// Snapshotted recipient no longer exists; nothing to adjust.
					continue
				}

				bonus, err := s.BonusFor(ctx, agentID, period.Key, period.Type)
				if err != nil {
					return err
				}
				if bonus == nil {
					// No bonus was ever paid for this period.
					continue
				}

				// The cancelled sale is already flagged, so this rereads
				// reality without it. Volume scope is the agent's current
				// downline, not the snapshot's.
				newVolume, err := periodVolume(ctx, s, *agent, period)
				if err != nil {
					return err
				}
				newRate := e.tiers.RateFor(agent.Level, newVolume)
				newExpected := newVolume.Mul(newRate)

				adjustment := newExpected.Sub(bonus.Amount)
				if adjustment.Abs().LessThanOrEqual(bonusAdjustmentTolerance) {
					continue
				}

				bonusID := bonus.ID
				clawback := Clawback{
					ID:              ClawbackID(newID()),
					Amount:          adjustment,
					OriginalBonusID: &bonusID,
					SaleID:          id,
					ProcessedDate:   now,
				}
				if err := s.CreateClawback(ctx, clawback); err != nil {
					return err
				}
				result.BonusClawbacks++
			}
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}
	return result, nil
}

// ListClawbacks returns the full clawback audit trail.
func (e *Engine) ListClawbacks(ctx context.Context) ([]Clawback, error) {
	return e.store.ListClawbacks(ctx)
}
