// Package store provides an in-memory engine.TxStore used by tests and
// development tooling. Rollback is implemented by snapshotting the whole
// state before a transaction and restoring it on error, which matches the
// all-or-nothing contract of the SQL store.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/engine"
)

type Memory struct {
	mu   sync.RWMutex
	data *data
}

// data holds every table as an insertion-ordered slice. Scans are linear,
// which is fine at test scale.
type data struct {
	agents      []engine.Agent
	sales       []engine.Sale
	commissions []engine.Commission
	bonuses     []engine.Bonus
	clawbacks   []engine.Clawback
	snapshots   []engine.HierarchySnapshot
}

func NewMemory() *Memory {
	return &Memory{data: &data{}}
}

func (d *data) clone() *data {
	c := &data{
		agents:      make([]engine.Agent, len(d.agents)),
		sales:       make([]engine.Sale, len(d.sales)),
		commissions: make([]engine.Commission, len(d.commissions)),
		bonuses:     make([]engine.Bonus, len(d.bonuses)),
		clawbacks:   make([]engine.Clawback, len(d.clawbacks)),
		snapshots:   make([]engine.HierarchySnapshot, len(d.snapshots)),
	}
	copy(c.agents, d.agents)
	copy(c.sales, d.sales)
	copy(c.commissions, d.commissions)
	copy(c.bonuses, d.bonuses)
	copy(c.clawbacks, d.clawbacks)
	copy(c.snapshots, d.snapshots)
	return c
}

// WithTx runs fn against the live data while holding the write lock. On
// error the pre-transaction snapshot is restored.
func (m *Memory) WithTx(_ context.Context, fn func(engine.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(&txView{data: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// txView exposes the data without locking; the enclosing WithTx holds the
// write lock for the duration.
type txView struct {
	data *data
}

// =============================================================================
// AGENTS
// =============================================================================

func (d *data) createAgent(a engine.Agent) error {
	d.agents = append(d.agents, a)
	return nil
}

func (d *data) getAgent(id engine.AgentID) (*engine.Agent, error) {
	for _, a := range d.agents {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (d *data) updateAgent(a engine.Agent) error {
	for i := range d.agents {
		if d.agents[i].ID == a.ID {
			d.agents[i] = a
			return nil
		}
	}
	return engine.ErrAgentNotFound
}

func (d *data) deleteAgent(id engine.AgentID) error {
	for i := range d.agents {
		if d.agents[i].ID == id {
			d.agents = append(d.agents[:i], d.agents[i+1:]...)
			return nil
		}
	}
	return engine.ErrAgentNotFound
}

func (d *data) listAgents() ([]engine.Agent, error) {
	out := make([]engine.Agent, len(d.agents))
	copy(out, d.agents)
	return out, nil
}

func (d *data) agentsByLevel(level engine.Level) ([]engine.Agent, error) {
	var out []engine.Agent
	for _, a := range d.agents {
		if a.Level == level {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *data) childAgents(id engine.AgentID) ([]engine.Agent, error) {
	var out []engine.Agent
	for _, a := range d.agents {
		if a.ParentID != nil && *a.ParentID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (d *data) agentSaleCount(id engine.AgentID) (int, error) {
	n := 0
	for _, s := range d.sales {
		if s.AgentID == id {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// SALES
// =============================================================================

func (d *data) createSale(s engine.Sale) error {
	d.sales = append(d.sales, s)
	return nil
}

func (d *data) getSale(id engine.SaleID) (*engine.Sale, error) {
	for _, s := range d.sales {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (d *data) saleByPolicyNumber(policyNumber string) (*engine.Sale, error) {
	for _, s := range d.sales {
		if s.PolicyNumber == policyNumber {
			return &s, nil
		}
	}
	return nil, nil
}

func (d *data) listSales() ([]engine.Sale, error) {
	out := make([]engine.Sale, len(d.sales))
	copy(out, d.sales)
	return out, nil
}

func (d *data) markSaleCancelled(id engine.SaleID) error {
	for i := range d.sales {
		if d.sales[i].ID == id {
			d.sales[i].IsCancelled = true
			return nil
		}
	}
	return engine.ErrSaleNotFound
}

func (d *data) activeSalesInRange(agentIDs []engine.AgentID, from, to time.Time) ([]engine.Sale, error) {
	ids := make(map[engine.AgentID]bool, len(agentIDs))
	for _, id := range agentIDs {
		ids[id] = true
	}
	var out []engine.Sale
	for _, s := range d.sales {
		if s.IsCancelled || !ids[s.AgentID] {
			continue
		}
		if s.SaleDate.Before(from) || !s.SaleDate.Before(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// =============================================================================
// COMMISSIONS / BONUSES / CLAWBACKS / SNAPSHOTS
// =============================================================================

func (d *data) createCommission(c engine.Commission) error {
	d.commissions = append(d.commissions, c)
	return nil
}

func (d *data) commissionsBySale(id engine.SaleID) ([]engine.Commission, error) {
	var out []engine.Commission
	for _, c := range d.commissions {
		if c.SaleID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *data) listCommissions() ([]engine.Commission, error) {
	out := make([]engine.Commission, len(d.commissions))
	copy(out, d.commissions)
	return out, nil
}

func (d *data) createBonus(b engine.Bonus) error {
	d.bonuses = append(d.bonuses, b)
	return nil
}

func (d *data) updateBonusAmount(id engine.BonusID, amount decimal.Decimal, updatedAt time.Time) error {
	for i := range d.bonuses {
		if d.bonuses[i].ID == id {
			d.bonuses[i].Amount = amount
			d.bonuses[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return nil
}

func (d *data) bonusFor(agentID engine.AgentID, period string, typ engine.BonusType) (*engine.Bonus, error) {
	for _, b := range d.bonuses {
		if b.AgentID == agentID && b.Period == period && b.Type == typ {
			return &b, nil
		}
	}
	return nil, nil
}

func (d *data) listBonuses() ([]engine.Bonus, error) {
	out := make([]engine.Bonus, len(d.bonuses))
	copy(out, d.bonuses)
	return out, nil
}

func (d *data) createClawback(c engine.Clawback) error {
	d.clawbacks = append(d.clawbacks, c)
	return nil
}

func (d *data) listClawbacks() ([]engine.Clawback, error) {
	out := make([]engine.Clawback, len(d.clawbacks))
	copy(out, d.clawbacks)
	return out, nil
}

func (d *data) createSnapshot(s engine.HierarchySnapshot) error {
	d.snapshots = append(d.snapshots, s)
	return nil
}

func (d *data) snapshotsBySale(id engine.SaleID) ([]engine.HierarchySnapshot, error) {
	var out []engine.HierarchySnapshot
	for _, s := range d.snapshots {
		if s.SaleID == id {
			out = append(out, s)
		}
	}
	return out, nil
}

// =============================================================================
// LOCKED FRONT (engine.Store on *Memory)
// =============================================================================

func (m *Memory) CreateAgent(_ context.Context, a engine.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createAgent(a)
}

func (m *Memory) GetAgent(_ context.Context, id engine.AgentID) (*engine.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getAgent(id)
}

func (m *Memory) UpdateAgent(_ context.Context, a engine.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.updateAgent(a)
}

func (m *Memory) DeleteAgent(_ context.Context, id engine.AgentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.deleteAgent(id)
}

func (m *Memory) ListAgents(_ context.Context) ([]engine.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listAgents()
}

func (m *Memory) AgentsByLevel(_ context.Context, level engine.Level) ([]engine.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.agentsByLevel(level)
}

func (m *Memory) ChildAgents(_ context.Context, id engine.AgentID) ([]engine.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.childAgents(id)
}

func (m *Memory) AgentSaleCount(_ context.Context, id engine.AgentID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.agentSaleCount(id)
}

func (m *Memory) CreateSale(_ context.Context, s engine.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createSale(s)
}

func (m *Memory) GetSale(_ context.Context, id engine.SaleID) (*engine.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getSale(id)
}

func (m *Memory) SaleByPolicyNumber(_ context.Context, policyNumber string) (*engine.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.saleByPolicyNumber(policyNumber)
}

func (m *Memory) ListSales(_ context.Context) ([]engine.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listSales()
}

func (m *Memory) MarkSaleCancelled(_ context.Context, id engine.SaleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.markSaleCancelled(id)
}

func (m *Memory) ActiveSalesInRange(_ context.Context, agentIDs []engine.AgentID, from, to time.Time) ([]engine.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.activeSalesInRange(agentIDs, from, to)
}

func (m *Memory) CreateCommission(_ context.Context, c engine.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createCommission(c)
}

func (m *Memory) CommissionsBySale(_ context.Context, id engine.SaleID) ([]engine.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.commissionsBySale(id)
}

func (m *Memory) ListCommissions(_ context.Context) ([]engine.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listCommissions()
}

func (m *Memory) CreateBonus(_ context.Context, b engine.Bonus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createBonus(b)
}

func (m *Memory) UpdateBonusAmount(_ context.Context, id engine.BonusID, amount decimal.Decimal, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.updateBonusAmount(id, amount, updatedAt)
}

func (m *Memory) BonusFor(_ context.Context, agentID engine.AgentID, period string, typ engine.BonusType) (*engine.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.bonusFor(agentID, period, typ)
}

func (m *Memory) ListBonuses(_ context.Context) ([]engine.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listBonuses()
}

func (m *Memory) CreateClawback(_ context.Context, c engine.Clawback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createClawback(c)
}

func (m *Memory) ListClawbacks(_ context.Context) ([]engine.Clawback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listClawbacks()
}

func (m *Memory) CreateSnapshot(_ context.Context, s engine.HierarchySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.createSnapshot(s)
}

func (m *Memory) SnapshotsBySale(_ context.Context, id engine.SaleID) ([]engine.HierarchySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.snapshotsBySale(id)
}

// =============================================================================
// TRANSACTIONAL VIEW (engine.Store on *txView, no locking)
// =============================================================================

func (v *txView) CreateAgent(_ context.Context, a engine.Agent) error { return v.data.createAgent(a) }
func (v *txView) GetAgent(_ context.Context, id engine.AgentID) (*engine.Agent, error) {
	return v.data.getAgent(id)
}
func (v *txView) UpdateAgent(_ context.Context, a engine.Agent) error { return v.data.updateAgent(a) }
func (v *txView) DeleteAgent(_ context.Context, id engine.AgentID) error {
	return v.data.deleteAgent(id)
}
func (v *txView) ListAgents(_ context.Context) ([]engine.Agent, error) { return v.data.listAgents() }
func (v *txView) AgentsByLevel(_ context.Context, level engine.Level) ([]engine.Agent, error) {
	return v.data.agentsByLevel(level)
}
func (v *txView) ChildAgents(_ context.Context, id engine.AgentID) ([]engine.Agent, error) {
	return v.data.childAgents(id)
}
func (v *txView) AgentSaleCount(_ context.Context, id engine.AgentID) (int, error) {
	return v.data.agentSaleCount(id)
}
func (v *txView) CreateSale(_ context.Context, s engine.Sale) error { return v.data.createSale(s) }
func (v *txView) GetSale(_ context.Context, id engine.SaleID) (*engine.Sale, error) {
	return v.data.getSale(id)
}
func (v *txView) SaleByPolicyNumber(_ context.Context, policyNumber string) (*engine.Sale, error) {
	return v.data.saleByPolicyNumber(policyNumber)
}
func (v *txView) ListSales(_ context.Context) ([]engine.Sale, error) { return v.data.listSales() }
func (v *txView) MarkSaleCancelled(_ context.Context, id engine.SaleID) error {
	return v.data.markSaleCancelled(id)
}
func (v *txView) ActiveSalesInRange(_ context.Context, agentIDs []engine.AgentID, from, to time.Time) ([]engine.Sale, error) {
	return v.data.activeSalesInRange(agentIDs, from, to)
}
func (v *txView) CreateCommission(_ context.Context, c engine.Commission) error {
	return v.data.createCommission(c)
}
func (v *txView) CommissionsBySale(_ context.Context, id engine.SaleID) ([]engine.Commission, error) {
	return v.data.commissionsBySale(id)
}
func (v *txView) ListCommissions(_ context.Context) ([]engine.Commission, error) {
	return v.data.listCommissions()
}
func (v *txView) CreateBonus(_ context.Context, b engine.Bonus) error { return v.data.createBonus(b) }
func (v *txView) UpdateBonusAmount(_ context.Context, id engine.BonusID, amount decimal.Decimal, updatedAt time.Time) error {
	return v.data.updateBonusAmount(id, amount, updatedAt)
}
func (v *txView) BonusFor(_ context.Context, agentID engine.AgentID, period string, typ engine.BonusType) (*engine.Bonus, error) {
	return v.data.bonusFor(agentID, period, typ)
}
func (v *txView) ListBonuses(_ context.Context) ([]engine.Bonus, error) { return v.data.listBonuses() }
func (v *txView) CreateClawback(_ context.Context, c engine.Clawback) error {
	return v.data.createClawback(c)
}
func (v *txView) ListClawbacks(_ context.Context) ([]engine.Clawback, error) {
	return v.data.listClawbacks()
}
func (v *txView) CreateSnapshot(_ context.Context, s engine.HierarchySnapshot) error {
	return v.data.createSnapshot(s)
}
func (v *txView) SnapshotsBySale(_ context.Context, id engine.SaleID) ([]engine.HierarchySnapshot, error) {
	return v.data.snapshotsBySale(id)
}
