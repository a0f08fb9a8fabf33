/*
agents.go - Agent lifecycle with hierarchy invariant enforcement

PURPOSE:
  Creating, updating, and deleting agents while keeping the hierarchy a
  level-ordered forest:
    - a parent's level strictly exceeds each child's level
    - reparenting can never target the agent itself or its downline
    - deletion is blocked while the agent owns sales or has children

  Traversal itself lives in hierarchy.go; this file is the write-side
  guard that makes traversal safe to trust.
*/
package engine

import (
	"context"
	"strings"
)

// NewAgent is the input for creating an agent.
type NewAgent struct {
	Name     string
	Level    Level
	ParentID *AgentID
}

// AgentUpdate is a partial update. Nil fields are left unchanged.
// ParentSet distinguishes "don't touch the parent" from "clear the parent"
// (ParentSet true with a nil ParentID detaches the agent).
type AgentUpdate struct {
	Name      *string
	Level     *Level
	ParentSet bool
	ParentID  *AgentID
}

// CreateAgent validates and persists a new agent.
func (e *Engine) CreateAgent(ctx context.Context, in NewAgent) (*Agent, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !in.Level.Valid() {
		return nil, ErrInvalidLevel
	}

	agent := Agent{
		ID:        AgentID(newID()),
		Name:      name,
		Level:     in.Level,
		ParentID:  in.ParentID,
		CreatedAt: e.now(),
	}

	if in.ParentID != nil {
		parent, err := e.store.GetAgent(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.Level <= in.Level {
			return nil, &LevelOrderError{
				ParentID: parent.ID, ParentLevel: parent.Level,
				ChildID: agent.ID, ChildLevel: in.Level,
			}
		}
	}

	if err := e.store.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// UpdateAgent applies a partial update, re-validating hierarchy consistency:
// a level change must keep the parent above and every direct child below;
// a parent change must reference an existing agent that outranks this one
// and is not inside this agent's own downline.
func (e *Engine) UpdateAgent(ctx context.Context, id AgentID, upd AgentUpdate) (*Agent, error) {
	var updated *Agent
	err := e.store.WithTx(ctx, func(s Store) error {
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		if agent == nil {
			return ErrAgentNotFound
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return ErrInvalidName
			}
			agent.Name = name
		}

		if upd.Level != nil {
			if !upd.Level.Valid() {
				return ErrInvalidLevel
			}
			newLevel := *upd.Level

			if agent.ParentID != nil {
				parent, err := s.GetAgent(ctx, *agent.ParentID)
				if err != nil {
					return err
				}
				if parent != nil && parent.Level <= newLevel {
					return &LevelOrderError{
						ParentID: parent.ID, ParentLevel: parent.Level,
						ChildID: agent.ID, ChildLevel: newLevel,
					}
				}
			}

			children, err := s.ChildAgents(ctx, agent.ID)
			if err != nil {
				return err
			}
			for _, child := range children {
				if child.Level >= newLevel {
					return &LevelOrderError{
						ParentID: agent.ID, ParentLevel: newLevel,
						ChildID: child.ID, ChildLevel: child.Level,
					}
				}
			}
			agent.Level = newLevel
		}

		if upd.ParentSet {
			if upd.ParentID == nil {
				agent.ParentID = nil
			} else {
				parentID := *upd.ParentID
				if parentID == agent.ID {
					return ErrCyclicHierarchy
				}
				parent, err := s.GetAgent(ctx, parentID)
				if err != nil {
					return err
				}
				if parent == nil {
					return ErrParentNotFound
				}

				downline, err := hierarchy{s}.DownlineIDs(ctx, agent.ID)
				if err != nil {
					return err
				}
				for _, did := range downline {
					if did == parentID {
						return ErrCyclicHierarchy
					}
				}

				if parent.Level <= agent.Level {
					return &LevelOrderError{
						ParentID: parent.ID, ParentLevel: parent.Level,
						ChildID: agent.ID, ChildLevel: agent.Level,
					}
				}
				agent.ParentID = &parentID
			}
		}

		if err := s.UpdateAgent(ctx, *agent); err != nil {
			return err
		}
		updated = agent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAgent removes an agent that owns no sales and has no children.
func (e *Engine) DeleteAgent(ctx context.Context, id AgentID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		agent, err := s.GetAgent(ctx, id)
		if err != nil {
			return err
		}
		if agent == nil {
			return ErrAgentNotFound
		}

		saleCount, err := s.AgentSaleCount(ctx, id)
		if err != nil {
			return err
		}
		if saleCount > 0 {
			return ErrAgentHasSales
		}

		children, err := s.ChildAgents(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return ErrAgentHasChildren
		}

		return s.DeleteAgent(ctx, id)
	})
}

// GetAgent returns an agent or ErrAgentNotFound.
func (e *Engine) GetAgent(ctx context.Context, id AgentID) (*Agent, error) {
	agent, err := e.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// ListAgents returns every agent.
func (e *Engine) ListAgents(ctx context.Context) ([]Agent, error) {
	return e.store.ListAgents(ctx)
}

// AgentsByLevel returns agents at exactly the given level.
func (e *Engine) AgentsByLevel(ctx context.Context, level Level) ([]Agent, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	return e.store.AgentsByLevel(ctx, level)
}
