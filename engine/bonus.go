/*
bonus.go - Period bonus calculation

PURPOSE:
  CalculateBonuses runs one bonus pass for a (period, type) across every
  agent: resolve the agent's volume scope, aggregate volume, resolve the
  tier rate, and upsert the Bonus row. The whole run is a single
  transaction; a failure partway rolls back every row written by the run.

SEMANTICS:
  - Agents with zero volume or a zero rate get NO bonus row. Absence
    means "no bonus", not "a $0 bonus".
  - An existing (agent, period, type) row is overwritten in place; the
    run reports how many rows it created vs. updated. Re-running against
    unchanged sales therefore reports zero creations.
  - Bonus rows are never corrected after a cancellation; the Clawback
    ledger carries the adjustment (see clawback.go).
*/
package engine

import "context"

// BonusRunResult reports the outcome of one calculation pass.
type BonusRunResult struct {
	Period  string
	Type    BonusType
	Created int
	Updated int
}

// CalculateBonuses computes and upserts bonuses for every agent for the
// given period key and bonus type, atomically.
func (e *Engine) CalculateBonuses(ctx context.Context, periodKey string, typ BonusType) (BonusRunResult, error) {
	if !typ.Valid() {
		return BonusRunResult{}, ErrInvalidBonusType
	}
	period, err := ParsePeriod(periodKey, typ)
	if err != nil {
		return BonusRunResult{}, err
	}

	result := BonusRunResult{Period: period.Key, Type: typ}
	err = e.store.WithTx(ctx, func(s Store) error {
		agents, err := s.ListAgents(ctx)
		if err != nil {
			return err
		}

		for _, agent := range agents {
			volume, err := periodVolume(ctx, s, agent, period)
			if err != nil {
				return err
			}
			if !volume.IsPositive() {
				continue
			}

			rate := e.tiers.RateFor(agent.Level, volume)
			if !rate.IsPositive() {
				continue
			}
			amount := volume.Mul(rate)

			existing, err := s.BonusFor(ctx, agent.ID, period.Key, typ)
			if err != nil {
				return err
			}
			if existing != nil {
				if err := s.UpdateBonusAmount(ctx, existing.ID, amount, e.now()); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			now := e.now()
			bonus := Bonus{
				ID:        BonusID(newID()),
				Amount:    amount,
				Type:      typ,
				Period:    period.Key,
				AgentID:   agent.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.CreateBonus(ctx, bonus); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return BonusRunResult{}, err
	}
	return result, nil
}

// ListBonuses returns every bonus row.
func (e *Engine) ListBonuses(ctx context.Context) ([]Bonus, error) {
	return e.store.ListBonuses(ctx)
}
