package engine

import "context"

// Summarize computes the dashboard totals: gross sales value (cancelled
// included), commissions and bonuses as originally paid, the signed sum of
// all clawbacks, and the agent headcount. Amounts are summed in decimals
// from the ledgers rather than in SQL so both store backends agree exactly.
func (e *Engine) Summarize(ctx context.Context) (Summary, error) {
	var sum Summary

	sales, err := e.store.ListSales(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, s := range sales {
		sum.TotalSalesValue = sum.TotalSalesValue.Add(s.PolicyValue)
	}

	commissions, err := e.store.ListCommissions(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, c := range commissions {
		sum.TotalCommissionsPaid = sum.TotalCommissionsPaid.Add(c.Amount)
	}

	bonuses, err := e.store.ListBonuses(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, b := range bonuses {
		sum.TotalBonusesPaid = sum.TotalBonusesPaid.Add(b.Amount)
	}

	clawbacks, err := e.store.ListClawbacks(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, c := range clawbacks {
		sum.TotalClawbacksValue = sum.TotalClawbacksValue.Add(c.Amount)
	}

	agents, err := e.store.ListAgents(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum.AgentCount = len(agents)

	return sum, nil
}

// SnapshotsBySale exposes the frozen recipient chain of a sale.
func (e *Engine) SnapshotsBySale(ctx context.Context, id SaleID) ([]HierarchySnapshot, error) {
	return e.store.SnapshotsBySale(ctx, id)
}

// CommissionsBySale exposes the commissions created for a sale.
func (e *Engine) CommissionsBySale(ctx context.Context, id SaleID) ([]Commission, error) {
	return e.store.CommissionsBySale(ctx, id)
}
