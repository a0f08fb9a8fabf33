/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Agents:
    GET    /api/agents                 Forest, or flat list with ?level=N
    GET    /api/agents/tree            Hierarchy as a forest
    POST   /api/agents                 Create agent
    GET    /api/agents/{id}            Get agent details
    PUT    /api/agents/{id}            Update agent (partial)
    DELETE /api/agents/{id}            Delete agent (no sales, no children)
    GET    /api/agents/{id}/upline     Management chain, nearest first
    GET    /api/agents/{id}/downline   Subtree agent ids

  Sales:
    GET    /api/sales                  List sales
    POST   /api/sales                  Record sale, pay commissions
    GET    /api/sales/{id}             Sale with its payout ledger
    PUT    /api/sales/{id}/cancel      Cancel sale, write clawbacks

  Bonuses:
    GET    /api/bonuses                List bonuses
    POST   /api/bonuses/calculate      Upsert bonuses for a period

  Ledger:
    GET    /api/commissions            List commissions
    GET    /api/clawbacks              List clawbacks
    GET    /api/tiers                  Performance tier table
    GET    /api/dashboard/summary      Aggregate totals
    GET    /api/reports/commissions.xlsx  Excel export (reports.go)

ERROR HANDLING:
  Engine errors are classified with the engine helpers:
  - 400: engine.IsClientError (validation, invariant violations)
  - 404: engine.IsNotFound
  - 409: engine.IsConflict (duplicate policy number)
  - 500: everything else, logged

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
}

// NewHandler creates a new handler around the engine.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{Engine: eng}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps an engine error to an HTTP status. The fallback
// message is used for unexpected (500) errors so internals don't leak.
func writeEngineError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		log.Printf("api: %s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback, nil)
	}
}

// agentNames returns an id -> name map for joining names into DTOs.
func (h *Handler) agentNames(r *http.Request) (map[engine.AgentID]string, error) {
	agents, err := h.Engine.ListAgents(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[engine.AgentID]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return names, nil
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns a flat list filtered by ?level=N, or the full nested
// hierarchy when no filter is given.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	lv := r.URL.Query().Get("level")
	if lv == "" {
		h.AgentTree(w, r)
		return
	}

	n, err := strconv.Atoi(lv)
	if err != nil || !engine.Level(n).Valid() {
		writeError(w, http.StatusBadRequest, "level must be an integer between 1 and 4", nil)
		return
	}
	agents, err := h.Engine.AgentsByLevel(r.Context(), engine.Level(n))
	if err != nil {
		writeEngineError(w, err, "failed to list agents")
		return
	}

	dtos := make([]AgentDTO, len(agents))
	for i, a := range agents {
		dtos[i] = agentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AgentTree returns the hierarchy as a forest of root agents, children
// sorted by name.
func (h *Handler) AgentTree(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Engine.ListAgents(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list agents")
		return
	}

	nodes := make(map[engine.AgentID]*AgentNodeDTO, len(agents))
	for _, a := range agents {
		nodes[a.ID] = &AgentNodeDTO{AgentDTO: agentDTO(a), Children: []*AgentNodeDTO{}}
	}
	var roots []*AgentNodeDTO
	for _, a := range agents {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	var sortNodes func([]*AgentNodeDTO)
	sortNodes = func(ns []*AgentNodeDTO) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].Name < ns[j].Name })
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	if roots == nil {
		roots = []*AgentNodeDTO{}
	}
	writeJSON(w, http.StatusOK, roots)
}

// GetAgent returns a single agent.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := engine.AgentID(chi.URLParam(r, "id"))
	agent, err := h.Engine.GetAgent(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get agent")
		return
	}
	writeJSON(w, http.StatusOK, agentDTO(*agent))
}

// CreateAgent creates a new agent.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in := engine.NewAgent{Name: req.Name, Level: engine.Level(req.Level)}
	if req.ParentID != nil {
		pid := engine.AgentID(*req.ParentID)
		in.ParentID = &pid
	}

	agent, err := h.Engine.CreateAgent(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, "failed to create agent")
		return
	}
	writeJSON(w, http.StatusCreated, agentDTO(*agent))
}

// UpdateAgent applies a partial update. A present-but-null parent_id
// detaches the agent from its parent.
func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id := engine.AgentID(chi.URLParam(r, "id"))

	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	upd := engine.AgentUpdate{Name: req.Name}
	if req.Level != nil {
		lv := engine.Level(*req.Level)
		upd.Level = &lv
	}
	if len(req.ParentID) > 0 {
		upd.ParentSet = true
		if !bytes.Equal(req.ParentID, []byte("null")) {
			var s string
			if err := json.Unmarshal(req.ParentID, &s); err != nil {
				writeError(w, http.StatusBadRequest, "parent_id must be a string or null", err)
				return
			}
			pid := engine.AgentID(s)
			upd.ParentID = &pid
		}
	}

	agent, err := h.Engine.UpdateAgent(r.Context(), id, upd)
	if err != nil {
		writeEngineError(w, err, "failed to update agent")
		return
	}
	writeJSON(w, http.StatusOK, agentDTO(*agent))
}

// DeleteAgent removes an agent with no sales and no children.
func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := engine.AgentID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteAgent(r.Context(), id); err != nil {
		writeEngineError(w, err, "failed to delete agent")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUpline returns the management chain above an agent, nearest first.
func (h *Handler) GetUpline(w http.ResponseWriter, r *http.Request) {
	id := engine.AgentID(chi.URLParam(r, "id"))
	upline, err := h.Engine.Upline(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to resolve upline")
		return
	}
	dtos := make([]AgentDTO, len(upline))
	for i, a := range upline {
		dtos[i] = agentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDownline returns the ids of an agent's whole subtree, itself included.
func (h *Handler) GetDownline(w http.ResponseWriter, r *http.Request) {
	id := engine.AgentID(chi.URLParam(r, "id"))
	ids, err := h.Engine.DownlineIDs(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to resolve downline")
		return
	}
	out := make([]string, len(ids))
	for i, aid := range ids {
		out[i] = string(aid)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_id": string(id),
		"downline": out,
	})
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns all sales, newest first.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Engine.ListSales(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list sales")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to list sales")
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = saleDTO(s, names[s.AgentID])
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].SaleDate > dtos[j].SaleDate })
	writeJSON(w, http.StatusOK, dtos)
}

// GetSale returns one sale with its commissions and hierarchy snapshots.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := engine.SaleID(chi.URLParam(r, "id"))
	sale, err := h.Engine.GetSale(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get sale")
		return
	}
	commissions, err := h.Engine.CommissionsBySale(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get sale")
		return
	}
	snapshots, err := h.Engine.SnapshotsBySale(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to get sale")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to get sale")
		return
	}

	detail := SaleDetailDTO{
		SaleDTO:     saleDTO(*sale, names[sale.AgentID]),
		Commissions: make([]CommissionDTO, len(commissions)),
		Snapshots:   make([]SnapshotDTO, len(snapshots)),
	}
	for i, c := range commissions {
		detail.Commissions[i] = commissionDTO(c, names[c.AgentID])
	}
	for i, s := range snapshots {
		detail.Snapshots[i] = snapshotDTO(s)
	}
	writeJSON(w, http.StatusOK, detail)
}

// RecordSale records a sale and pays commissions up the hierarchy.
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	in := engine.NewSale{
		PolicyNumber: strings.TrimSpace(req.PolicyNumber),
		PolicyValue:  decimal.NewFromFloat(req.PolicyValue),
		AgentID:      engine.AgentID(req.AgentID),
	}
	if req.SaleDate != "" {
		d, err := time.Parse("2006-01-02", req.SaleDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sale_date format (use YYYY-MM-DD)", err)
			return
		}
		in.SaleDate = d.UTC()
	}

	sale, err := h.Engine.RecordSale(r.Context(), in)
	if err != nil {
		writeEngineError(w, err, "failed to record sale")
		return
	}
	commissions, err := h.Engine.CommissionsBySale(r.Context(), sale.ID)
	if err != nil {
		writeEngineError(w, err, "failed to record sale")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to record sale")
		return
	}

	resp := RecordSaleResponse{
		Sale:        saleDTO(*sale, names[sale.AgentID]),
		Commissions: make([]CommissionDTO, len(commissions)),
	}
	for i, c := range commissions {
		resp.Commissions[i] = commissionDTO(c, names[c.AgentID])
	}
	writeJSON(w, http.StatusCreated, resp)
}

// CancelSale cancels a sale, reversing its commissions and correcting any
// affected bonuses. Cancelling an already-cancelled sale is a no-op.
func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	id := engine.SaleID(chi.URLParam(r, "id"))
	result, err := h.Engine.CancelSale(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "failed to cancel sale")
		return
	}
	writeJSON(w, http.StatusOK, CancelSaleResponse{
		SaleID:              string(id),
		AlreadyCancelled:    result.AlreadyCancelled,
		CommissionClawbacks: result.CommissionClawbacks,
		BonusClawbacks:      result.BonusClawbacks,
	})
}

// =============================================================================
// BONUS HANDLERS
// =============================================================================

// CalculateBonuses runs the bonus upsert for one period.
func (h *Handler) CalculateBonuses(w http.ResponseWriter, r *http.Request) {
	var req CalculateBonusesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.Engine.CalculateBonuses(r.Context(), req.Period, engine.BonusType(req.BonusType))
	if err != nil {
		writeEngineError(w, err, "failed to calculate bonuses")
		return
	}
	writeJSON(w, http.StatusOK, CalculateBonusesResponse{
		Period:    result.Period,
		BonusType: string(result.Type),
		Created:   result.Created,
		Updated:   result.Updated,
	})
}

// ListBonuses returns all bonuses, most recent period first.
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	bonuses, err := h.Engine.ListBonuses(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list bonuses")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to list bonuses")
		return
	}

	dtos := make([]BonusDTO, len(bonuses))
	for i, b := range bonuses {
		dtos[i] = bonusDTO(b, names[b.AgentID])
	}
	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].Period != dtos[j].Period {
			return dtos[i].Period > dtos[j].Period
		}
		return dtos[i].AgentName < dtos[j].AgentName
	})
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListCommissions returns every commission ever paid.
func (h *Handler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	commissions, err := h.Engine.ListCommissions(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list commissions")
		return
	}
	names, err := h.agentNames(r)
	if err != nil {
		writeEngineError(w, err, "failed to list commissions")
		return
	}

	dtos := make([]CommissionDTO, len(commissions))
	for i, c := range commissions {
		dtos[i] = commissionDTO(c, names[c.AgentID])
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].PayoutDate > dtos[j].PayoutDate })
	writeJSON(w, http.StatusOK, dtos)
}

// ListClawbacks returns the correction ledger, newest first.
func (h *Handler) ListClawbacks(w http.ResponseWriter, r *http.Request) {
	clawbacks, err := h.Engine.ListClawbacks(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to list clawbacks")
		return
	}
	dtos := make([]ClawbackDTO, len(clawbacks))
	for i, c := range clawbacks {
		dtos[i] = clawbackDTO(c)
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ProcessedDate > dtos[j].ProcessedDate })
	writeJSON(w, http.StatusOK, dtos)
}

// ListTiers returns the performance tier table.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := h.Engine.Tiers().All()
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		dtos[i] = tierDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSummary returns the dashboard aggregate totals.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.Summarize(r.Context())
	if err != nil {
		writeEngineError(w, err, "failed to summarize")
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalSalesValue:      summary.TotalSalesValue.InexactFloat64(),
		TotalCommissionsPaid: summary.TotalCommissionsPaid.InexactFloat64(),
		TotalBonusesPaid:     summary.TotalBonusesPaid.InexactFloat64(),
		TotalClawbacksValue:  summary.TotalClawbacksValue.InexactFloat64(),
		AgentCount:           summary.AgentCount,
	})
}
