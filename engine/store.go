/*
store.go - Persistence interface the engine drives

PURPOSE:
  Defines the contract between the calculation engine and the database.
  Implementations exist for SQLite/PostgreSQL (store/sqlite) and in-memory
  (engine/store, used by tests).

MUTATION CONTRACT:
  - Sales are never deleted; MarkSaleCancelled is their only mutation.
  - Commissions, clawbacks, and snapshots are append-only.
  - Bonuses support exactly one mutation: UpdateBonusAmount (the upsert).
  - Agents have full CRUD; the engine enforces the hierarchy invariants.

ATOMICITY:
  WithTx runs a function against a transactional view of the store. If the
  function returns an error, every write inside it is rolled back. All
  multi-row engine operations (recordSale, calculateBonuses, cancelSale)
  run inside WithTx so partial state is never visible.
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence contract for the six engine entities.
// Lookups return (nil, nil) when the record does not exist; the engine
// turns that into its own not-found errors.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, a Agent) error
	GetAgent(ctx context.Context, id AgentID) (*Agent, error)
	UpdateAgent(ctx context.Context, a Agent) error
	DeleteAgent(ctx context.Context, id AgentID) error
	ListAgents(ctx context.Context) ([]Agent, error)
	AgentsByLevel(ctx context.Context, level Level) ([]Agent, error)
	// ChildAgents returns the direct children of an agent.
	ChildAgents(ctx context.Context, id AgentID) ([]Agent, error)
	// AgentSaleCount returns how many sales an agent owns (cancelled included).
	AgentSaleCount(ctx context.Context, id AgentID) (int, error)

	// Sales
	CreateSale(ctx context.Context, s Sale) error
	GetSale(ctx context.Context, id SaleID) (*Sale, error)
	SaleByPolicyNumber(ctx context.Context, policyNumber string) (*Sale, error)
	ListSales(ctx context.Context) ([]Sale, error)
	MarkSaleCancelled(ctx context.Context, id SaleID) error
	// ActiveSalesInRange returns non-cancelled sales owned by any of the
	// given agents with sale_date in [from, to).
	ActiveSalesInRange(ctx context.Context, agentIDs []AgentID, from, to time.Time) ([]Sale, error)

	// Commissions
	CreateCommission(ctx context.Context, c Commission) error
	CommissionsBySale(ctx context.Context, id SaleID) ([]Commission, error)
	ListCommissions(ctx context.Context) ([]Commission, error)

	// Bonuses
	CreateBonus(ctx context.Context, b Bonus) error
	UpdateBonusAmount(ctx context.Context, id BonusID, amount decimal.Decimal, updatedAt time.Time) error
	BonusFor(ctx context.Context, agentID AgentID, period string, typ BonusType) (*Bonus, error)
	ListBonuses(ctx context.Context) ([]Bonus, error)

	// Clawbacks
	CreateClawback(ctx context.Context, c Clawback) error
	ListClawbacks(ctx context.Context) ([]Clawback, error)

	// Hierarchy snapshots
	CreateSnapshot(ctx context.Context, s HierarchySnapshot) error
	SnapshotsBySale(ctx context.Context, id SaleID) ([]HierarchySnapshot, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional store. If fn returns an
	// error the transaction is rolled back and the error is returned;
	// otherwise the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
