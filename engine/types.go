/*
Package engine implements the commission calculation core.

PURPOSE:
  This package turns a hierarchy of sales agents and a stream of sale and
  cancellation events into a consistent ledger of commissions, volume
  bonuses, and clawback adjustments. The HTTP layer and the storage
  backends are thin shells around the operations defined here.

KEY CONCEPTS IN THIS FILE (types.go):
  - Agent: a node in the sales hierarchy (level 1 Agent up to level 4 Director)
  - Sale: an immutable policy sale; only its cancellation flag ever changes
  - Commission: FYC for the seller, Override for each rated upline manager
  - Bonus: a per-period volume bonus, unique per (agent, period, type)
  - Clawback: a signed adjustment reversing a commission or correcting a bonus
  - HierarchySnapshot: the recipient chain frozen at sale time

DESIGN PRINCIPLES:
  1. Immutability: commissions, clawbacks, and snapshots are never modified
  2. Precision: uses decimal.Decimal to avoid floating-point errors
  3. Type safety: distinct ID types prevent mixing agents, sales, and bonuses
  4. Auditability: corrections are new Clawback records, never edits

SEE ALSO:
  - rates.go / tiers.go: static rate configuration
  - store.go: persistence interface the engine drives
  - commission.go, bonus.go, clawback.go: the three core operations
*/
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AgentID string
type SaleID string
type CommissionID string
type BonusID string
type ClawbackID string
type SnapshotID string

func newID() string { return uuid.NewString() }

// =============================================================================
// AGENT - Node in the sales hierarchy
// =============================================================================

// Level is the rank of an agent in the organization. A parent must always
// outrank its children, so the hierarchy forms a forest ordered by level.
type Level int

const (
	LevelAgent    Level = 1
	LevelTeamLead Level = 2
	LevelManager  Level = 3
	LevelDirector Level = 4
)

func (l Level) Valid() bool {
	return l >= LevelAgent && l <= LevelDirector
}

func (l Level) String() string {
	switch l {
	case LevelAgent:
		return "Agent"
	case LevelTeamLead:
		return "Team Lead"
	case LevelManager:
		return "Manager"
	case LevelDirector:
		return "Director"
	default:
		return "Unknown"
	}
}

// Agent is a member of the sales organization. ParentID is nil for roots.
// The parent/children relationship is stored one-way (child points at
// parent); children are always derived by query, never stored.
type Agent struct {
	ID        AgentID
	Name      string
	Level     Level
	ParentID  *AgentID
	CreatedAt time.Time
}

// =============================================================================
// SALE - A policy sale; immutable except for the cancellation flag
// =============================================================================

type Sale struct {
	ID           SaleID
	PolicyNumber string
	PolicyValue  decimal.Decimal
	SaleDate     time.Time
	AgentID      AgentID
	IsCancelled  bool
	CreatedAt    time.Time
}

// =============================================================================
// COMMISSION - Created exactly once per (sale, recipient); never mutated
// =============================================================================

type CommissionType string

const (
	CommissionFYC      CommissionType = "FYC"      // First-year commission, paid to the seller
	CommissionOverride CommissionType = "Override" // Upline percentage of a subordinate's sale
)

type Commission struct {
	ID         CommissionID
	Amount     decimal.Decimal
	Type       CommissionType
	SaleID     SaleID
	AgentID    AgentID
	PayoutDate time.Time
}

// =============================================================================
// BONUS - Volume bonus per (agent, period, type); recalculation upserts in place
// =============================================================================

type BonusType string

const (
	BonusMonthly   BonusType = "Monthly"
	BonusQuarterly BonusType = "Quarterly"
	BonusAnnual    BonusType = "Annual"
)

func (t BonusType) Valid() bool {
	return t == BonusMonthly || t == BonusQuarterly || t == BonusAnnual
}

type Bonus struct {
	ID        BonusID
	Amount    decimal.Decimal
	Type      BonusType
	Period    string // canonical period key, e.g. "2025-03", "2025-Q1", "2025"
	AgentID   AgentID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// CLAWBACK - Signed adjustment; the append-only correction ledger
// =============================================================================

// Clawback reverses a commission or corrects a bonus after a sale is
// cancelled. Exactly one of OriginalCommissionID / OriginalBonusID is set,
// tagging what is being adjusted. Clawbacks are never mutated or deleted.
type Clawback struct {
	ID                   ClawbackID
	Amount               decimal.Decimal // signed; commission reversals are negative
	OriginalCommissionID *CommissionID
	OriginalBonusID      *BonusID
	SaleID               SaleID
	ProcessedDate        time.Time
}

// =============================================================================
// HIERARCHY SNAPSHOT - Who was paid for a sale, frozen at sale time
// =============================================================================

// HierarchySnapshot records one commission recipient of a sale as the
// hierarchy stood when the sale was made. UplineLevel 0 is the seller, 1 the
// immediate parent, and so on. Cancellation reads these rows instead of the
// live hierarchy, so later reorganizations cannot change who is clawed back.
type HierarchySnapshot struct {
	ID            SnapshotID
	SaleID        SaleID
	AgentID       AgentID
	UplineLevel   int
	UplineAgentID AgentID
	CreatedAt     time.Time
}

// =============================================================================
// PERFORMANCE TIER - Volume band mapping to a bonus rate
// =============================================================================

type TierName string

const (
	TierBronze   TierName = "BRONZE"
	TierSilver   TierName = "SILVER"
	TierGold     TierName = "GOLD"
	TierPlatinum TierName = "PLATINUM"
)

// PerformanceTier is one volume band for one agent level. Bands are
// half-open [MinVolume, MaxVolume); a nil MaxVolume means unbounded, so the
// four bands of a level cover [0, inf) with no gaps or overlaps.
type PerformanceTier struct {
	AgentLevel Level
	Name       TierName
	MinVolume  decimal.Decimal
	MaxVolume  *decimal.Decimal // nil = +infinity
	BonusRate  decimal.Decimal
}

// Contains reports whether volume falls inside this band.
func (t PerformanceTier) Contains(volume decimal.Decimal) bool {
	if volume.LessThan(t.MinVolume) {
		return false
	}
	return t.MaxVolume == nil || volume.LessThan(*t.MaxVolume)
}

// =============================================================================
// SUMMARY - Dashboard aggregate totals
// =============================================================================

type Summary struct {
	TotalSalesValue      decimal.Decimal
	TotalCommissionsPaid decimal.Decimal
	TotalBonusesPaid     decimal.Decimal
	TotalClawbacksValue  decimal.Decimal
	AgentCount           int
}

// dec parses a decimal constant. Panics on malformed input, so it is only
// used for compile-time rate and tier literals.
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
