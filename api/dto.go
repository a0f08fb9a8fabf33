/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts cross the wire as JSON numbers produced by
  decimal.Decimal.InexactFloat64. The engine and the database keep exact
  decimals; the float conversion happens only at the JSON boundary.

VALIDATION:
  Validation is done in handlers and in the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// AGENTS
// =============================================================================

type AgentDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Level     int     `json:"level"`
	LevelName string  `json:"level_name"`
	ParentID  *string `json:"parent_id"`
	CreatedAt string  `json:"created_at"`
}

// AgentNodeDTO is an agent with its direct reports, used by the tree view.
type AgentNodeDTO struct {
	AgentDTO
	Children []*AgentNodeDTO `json:"children"`
}

type CreateAgentRequest struct {
	Name     string  `json:"name"`
	Level    int     `json:"level"`
	ParentID *string `json:"parent_id"`
}

// UpdateAgentRequest is a partial update. ParentID is a json.RawMessage so
// the handler can tell an absent field (leave unchanged) from an explicit
// null (detach from parent).
type UpdateAgentRequest struct {
	Name     *string         `json:"name"`
	Level    *int            `json:"level"`
	ParentID json.RawMessage `json:"parent_id"`
}

// =============================================================================
// SALES
// =============================================================================

type SaleDTO struct {
	ID           string  `json:"id"`
	PolicyNumber string  `json:"policy_number"`
	PolicyValue  float64 `json:"policy_value"`
	SaleDate     string  `json:"sale_date"`
	AgentID      string  `json:"agent_id"`
	AgentName    string  `json:"agent_name,omitempty"`
	IsCancelled  bool    `json:"is_cancelled"`
	CreatedAt    string  `json:"created_at"`
}

// SaleDetailDTO adds the payout ledger of one sale.
type SaleDetailDTO struct {
	SaleDTO
	Commissions []CommissionDTO `json:"commissions"`
	Snapshots   []SnapshotDTO   `json:"hierarchy_snapshots"`
}

type RecordSaleRequest struct {
	PolicyNumber string  `json:"policy_number"`
	PolicyValue  float64 `json:"policy_value"`
	AgentID      string  `json:"agent_id"`
	SaleDate     string  `json:"sale_date"` // YYYY-MM-DD, optional
}

// RecordSaleResponse returns the sale together with every commission it
// produced, so the client sees the full payout in one round trip.
type RecordSaleResponse struct {
	Sale        SaleDTO         `json:"sale"`
	Commissions []CommissionDTO `json:"commissions"`
}

// =============================================================================
// COMMISSIONS
// =============================================================================

type CommissionDTO struct {
	ID         string  `json:"id"`
	Amount     float64 `json:"amount"`
	Type       string  `json:"commission_type"`
	SaleID     string  `json:"sale_id"`
	AgentID    string  `json:"agent_id"`
	AgentName  string  `json:"agent_name,omitempty"`
	PayoutDate string  `json:"payout_date"`
}

// =============================================================================
// BONUSES
// =============================================================================

type BonusDTO struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Type      string  `json:"bonus_type"`
	Period    string  `json:"period"`
	AgentID   string  `json:"agent_id"`
	AgentName string  `json:"agent_name,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type CalculateBonusesRequest struct {
	Period    string `json:"period"`
	BonusType string `json:"bonus_type"`
}

type CalculateBonusesResponse struct {
	Period    string `json:"period"`
	BonusType string `json:"bonus_type"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
}

// =============================================================================
// CLAWBACKS / CANCELLATION
// =============================================================================

type ClawbackDTO struct {
	ID                   string  `json:"id"`
	Amount               float64 `json:"amount"`
	OriginalCommissionID *string `json:"original_commission_id"`
	OriginalBonusID      *string `json:"original_bonus_id"`
	SaleID               string  `json:"sale_id"`
	ProcessedDate        string  `json:"processed_date"`
}

type CancelSaleResponse struct {
	SaleID              string `json:"sale_id"`
	AlreadyCancelled    bool   `json:"already_cancelled"`
	CommissionClawbacks int    `json:"commission_clawbacks"`
	BonusClawbacks      int    `json:"bonus_clawbacks"`
}

// =============================================================================
// SNAPSHOTS / TIERS / DASHBOARD
// =============================================================================

type SnapshotDTO struct {
	ID          string `json:"id"`
	SaleID      string `json:"sale_id"`
	AgentID     string `json:"agent_id"`
	UplineLevel int    `json:"upline_level"`
	CreatedAt   string `json:"created_at"`
}

type TierDTO struct {
	AgentLevel int      `json:"agent_level"`
	Name       string   `json:"name"`
	MinVolume  float64  `json:"min_volume"`
	MaxVolume  *float64 `json:"max_volume"` // null = unbounded
	BonusRate  float64  `json:"bonus_rate"`
}

type SummaryDTO struct {
	TotalSalesValue      float64 `json:"total_sales_value"`
	TotalCommissionsPaid float64 `json:"total_commissions_paid"`
	TotalBonusesPaid     float64 `json:"total_bonuses_paid"`
	TotalClawbacksValue  float64 `json:"total_clawbacks_value"`
	AgentCount           int     `json:"agent_count"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func agentDTO(a engine.Agent) AgentDTO {
	var parent *string
	if a.ParentID != nil {
		p := string(*a.ParentID)
		parent = &p
	}
	return AgentDTO{
		ID:        string(a.ID),
		Name:      a.Name,
		Level:     int(a.Level),
		LevelName: a.Level.String(),
		ParentID:  parent,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func saleDTO(s engine.Sale, agentName string) SaleDTO {
	return SaleDTO{
		ID:           string(s.ID),
		PolicyNumber: s.PolicyNumber,
		PolicyValue:  s.PolicyValue.InexactFloat64(),
		SaleDate:     s.SaleDate.Format(time.RFC3339),
		AgentID:      string(s.AgentID),
		AgentName:    agentName,
		IsCancelled:  s.IsCancelled,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
}

func commissionDTO(c engine.Commission, agentName string) CommissionDTO {
	return CommissionDTO{
		ID:         string(c.ID),
		Amount:     c.Amount.InexactFloat64(),
		Type:       string(c.Type),
		SaleID:     string(c.SaleID),
		AgentID:    string(c.AgentID),
		AgentName:  agentName,
		PayoutDate: c.PayoutDate.Format(time.RFC3339),
	}
}

func bonusDTO(b engine.Bonus, agentName string) BonusDTO {
	return BonusDTO{
		ID:        string(b.ID),
		Amount:    b.Amount.InexactFloat64(),
		Type:      string(b.Type),
		Period:    b.Period,
		AgentID:   string(b.AgentID),
		AgentName: agentName,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

func clawbackDTO(c engine.Clawback) ClawbackDTO {
	var commID, bonusID *string
	if c.OriginalCommissionID != nil {
		s := string(*c.OriginalCommissionID)
		commID = &s
	}
	if c.OriginalBonusID != nil {
		s := string(*c.OriginalBonusID)
		bonusID = &s
	}
	return ClawbackDTO{
		ID:                   string(c.ID),
		Amount:               c.Amount.InexactFloat64(),
		OriginalCommissionID: commID,
		OriginalBonusID:      bonusID,
		SaleID:               string(c.SaleID),
		ProcessedDate:        c.ProcessedDate.Format(time.RFC3339),
	}
}

func snapshotDTO(s engine.HierarchySnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:          string(s.ID),
		SaleID:      string(s.SaleID),
		AgentID:     string(s.AgentID),
		UplineLevel: s.UplineLevel,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func tierDTO(t engine.PerformanceTier) TierDTO {
	var max *float64
	if t.MaxVolume != nil {
		f := t.MaxVolume.InexactFloat64()
		max = &f
	}
	return TierDTO{
		AgentLevel: int(t.AgentLevel),
		Name:       string(t.Name),
		MinVolume:  t.MinVolume.InexactFloat64(),
		MaxVolume:  max,
		BonusRate:  t.BonusRate.InexactFloat64(),
	}
}
