/*
hierarchy.go - Upline and downline traversal over the agent forest

PURPOSE:
  The hierarchy index answers two questions the calculators depend on:
    - Upline:      who sits above this agent (commission recipients)?
    - DownlineIDs: which agents roll up into this one (volume scope)?

  Agents point at their parent; children are derived by query. The level
  invariant (parent strictly outranks child) is enforced at agent
  create/update time, not here.

CYCLE SAFETY:
  The hierarchy is user-editable, so a validation bug could in theory
  introduce a cycle. Both traversals therefore use an explicit
  visited-set + worklist instead of unbounded recursion: Upline walks a
  loop with a depth bound, DownlineIDs drains a queue. Malformed cyclic
  data terminates instead of looping or blowing the stack.
*/
package engine

import "context"

// maxUplineDepth bounds the parent walk. Legitimate hierarchies are at most
// four levels deep; anything past the bound indicates corrupted data.
const maxUplineDepth = 64

// hierarchy traverses agent links through whichever Store view it is given,
// so the same code runs inside and outside transactions.
type hierarchy struct {
	store Store
}

// Upline returns the chain of ancestors above an agent, immediate parent
// first. Returns ErrAgentNotFound when the agent doesn't exist and an empty
// chain for roots.
func (h hierarchy) Upline(ctx context.Context, id AgentID) ([]Agent, error) {
	current, err := h.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAgentNotFound
	}

	var upline []Agent
	visited := map[AgentID]bool{id: true}

	for current.ParentID != nil {
		if len(upline) >= maxUplineDepth || visited[*current.ParentID] {
			return nil, ErrHierarchyDepthExceeded
		}
		parent, err := h.store.GetAgent(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			// Dangling parent reference; treat the chain as ended.
			break
		}
		visited[parent.ID] = true
		upline = append(upline, *parent)
		current = parent
	}
	return upline, nil
}

// DownlineIDs returns the agent's ID plus every descendant ID, deduplicated.
// Worklist traversal; a visited set keeps malformed cyclic data from looping.
func (h hierarchy) DownlineIDs(ctx context.Context, id AgentID) ([]AgentID, error) {
	agent, err := h.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}

	visited := map[AgentID]bool{id: true}
	ids := []AgentID{id}
	queue := []AgentID{id}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		children, err := h.store.ChildAgents(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return ids, nil
}

// volumeScope returns the agent-ID set whose sales count toward an agent's
// bonus volume: level-1 agents count only personal sales, everyone else
// counts their full downline.
func (h hierarchy) volumeScope(ctx context.Context, agent Agent) ([]AgentID, error) {
	if agent.Level == LevelAgent {
		return []AgentID{agent.ID}, nil
	}
	return h.DownlineIDs(ctx, agent.ID)
}

// Upline returns the ordered ancestor chain of an agent, immediate parent
// first.
func (e *Engine) Upline(ctx context.Context, id AgentID) ([]Agent, error) {
	return hierarchy{e.store}.Upline(ctx, id)
}

// DownlineIDs returns the agent plus all descendants, deduplicated.
func (e *Engine) DownlineIDs(ctx context.Context, id AgentID) ([]AgentID, error) {
	return hierarchy{e.store}.DownlineIDs(ctx, id)
}
