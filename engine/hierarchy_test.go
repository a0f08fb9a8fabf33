package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// LEVEL ORDER INVARIANT
// =============================================================================

func TestCreateAgent_ParentMustOutrankChild(t *testing.T) {
	// GIVEN: A team lead (level 2)
	// WHEN: Creating a manager (level 3) underneath it
	// THEN: The level order invariant rejects the creation

	eng := newTestEngine(t)
	teamLead := mustAgent(t, eng, "TL", engine.LevelTeamLead, nil)

	_, err := eng.CreateAgent(context.Background(), engine.NewAgent{
		Name: "Backwards Manager", Level: engine.LevelManager, ParentID: &teamLead.ID,
	})
	require.ErrorIs(t, err, engine.ErrLevelOrder)

	var loErr *engine.LevelOrderError
	require.ErrorAs(t, err, &loErr)
	assert.Equal(t, teamLead.ID, loErr.ParentID)
	assert.Equal(t, engine.LevelTeamLead, loErr.ParentLevel)
}

func TestCreateAgent_EqualLevelParent_Rejected(t *testing.T) {
	eng := newTestEngine(t)
	a := mustAgent(t, eng, "First", engine.LevelManager, nil)

	_, err := eng.CreateAgent(context.Background(), engine.NewAgent{
		Name: "Peer", Level: engine.LevelManager, ParentID: &a.ID,
	})
	assert.ErrorIs(t, err, engine.ErrLevelOrder)
}

func TestCreateAgent_ParentNotFound(t *testing.T) {
	eng := newTestEngine(t)
	ghost := engine.AgentID("missing")

	_, err := eng.CreateAgent(context.Background(), engine.NewAgent{
		Name: "Orphan", Level: engine.LevelAgent, ParentID: &ghost,
	})
	require.ErrorIs(t, err, engine.ErrParentNotFound)
	assert.True(t, engine.IsNotFound(err))
}

// =============================================================================
// TRAVERSAL
// =============================================================================

func TestUpline_NearestFirst(t *testing.T) {
	// GIVEN: A full four-level chain
	// WHEN: Resolving the agent's upline
	// THEN: Team lead first, then manager, then director

	eng := newTestEngine(t)
	agent, teamLead, manager, director := fullChain(t, eng)

	upline, err := eng.Upline(context.Background(), agent.ID)
	require.NoError(t, err)
	require.Len(t, upline, 3)
	assert.Equal(t, teamLead.ID, upline[0].ID)
	assert.Equal(t, manager.ID, upline[1].ID)
	assert.Equal(t, director.ID, upline[2].ID)
}

func TestUpline_RootHasEmptyChain(t *testing.T) {
	eng := newTestEngine(t)
	director := mustAgent(t, eng, "Root", engine.LevelDirector, nil)

	upline, err := eng.Upline(context.Background(), director.ID)
	require.NoError(t, err)
	assert.Empty(t, upline)
}

func TestDownlineIDs_IncludesSelfAndAllDescendants(t *testing.T) {
	// GIVEN: A manager with two team leads, each with one agent
	// WHEN: Resolving the manager's downline
	// THEN: All five ids appear exactly once

	eng := newTestEngine(t)
	manager := mustAgent(t, eng, "M", engine.LevelManager, nil)
	tl1 := mustAgent(t, eng, "TL1", engine.LevelTeamLead, manager)
	tl2 := mustAgent(t, eng, "TL2", engine.LevelTeamLead, manager)
	a1 := mustAgent(t, eng, "A1", engine.LevelAgent, tl1)
	a2 := mustAgent(t, eng, "A2", engine.LevelAgent, tl2)

	ids, err := eng.DownlineIDs(context.Background(), manager.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]engine.AgentID{manager.ID, tl1.ID, tl2.ID, a1.ID, a2.ID}, ids)
	assert.Equal(t, manager.ID, ids[0], "downline starts at the agent itself")
}

// =============================================================================
// REPARENTING
// =============================================================================

func TestUpdateAgent_ReparentToDescendant_Rejected(t *testing.T) {
	// GIVEN: director > manager > team lead
	// WHEN: Moving the manager under its own team lead
	// THEN: The cycle is rejected and nothing changes

	eng := newTestEngine(t)
	ctx := context.Background()
	director := mustAgent(t, eng, "D", engine.LevelDirector, nil)
	manager := mustAgent(t, eng, "M", engine.LevelManager, director)
	teamLead := mustAgent(t, eng, "TL", engine.LevelTeamLead, manager)

	_, err := eng.UpdateAgent(ctx, manager.ID, engine.AgentUpdate{
		ParentSet: true, ParentID: &teamLead.ID,
	})
	require.ErrorIs(t, err, engine.ErrCyclicHierarchy)

	got, err := eng.GetAgent(ctx, manager.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, director.ID, *got.ParentID)
}

func TestUpdateAgent_ReparentToSelf_Rejected(t *testing.T) {
	eng := newTestEngine(t)
	manager := mustAgent(t, eng, "M", engine.LevelManager, nil)

	_, err := eng.UpdateAgent(context.Background(), manager.ID, engine.AgentUpdate{
		ParentSet: true, ParentID: &manager.ID,
	})
	assert.ErrorIs(t, err, engine.ErrCyclicHierarchy)
}

func TestUpdateAgent_DetachFromParent(t *testing.T) {
	// GIVEN: A team lead under a manager
	// WHEN: Updating with an explicit nil parent
	// THEN: The team lead becomes a root

	eng := newTestEngine(t)
	manager := mustAgent(t, eng, "M", engine.LevelManager, nil)
	teamLead := mustAgent(t, eng, "TL", engine.LevelTeamLead, manager)

	got, err := eng.UpdateAgent(context.Background(), teamLead.ID, engine.AgentUpdate{
		ParentSet: true, ParentID: nil,
	})
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestUpdateAgent_LevelChangeKeepsOrderBothWays(t *testing.T) {
	// GIVEN: manager > team lead > agent
	// WHEN: Raising the team lead to the manager's level
	// THEN: Rejected; demoting it to the agent's level is also rejected

	eng := newTestEngine(t)
	ctx := context.Background()
	manager := mustAgent(t, eng, "M", engine.LevelManager, nil)
	teamLead := mustAgent(t, eng, "TL", engine.LevelTeamLead, manager)
	mustAgent(t, eng, "A", engine.LevelAgent, teamLead)

	up := engine.LevelManager
	_, err := eng.UpdateAgent(ctx, teamLead.ID, engine.AgentUpdate{Level: &up})
	assert.ErrorIs(t, err, engine.ErrLevelOrder)

	down := engine.LevelAgent
	_, err = eng.UpdateAgent(ctx, teamLead.ID, engine.AgentUpdate{Level: &down})
	assert.ErrorIs(t, err, engine.ErrLevelOrder)
}

// =============================================================================
// DELETION GUARDS
// =============================================================================

func TestDeleteAgent_BlockedByChildrenAndSales(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	manager := mustAgent(t, eng, "M", engine.LevelManager, nil)
	agent := mustAgent(t, eng, "A", engine.LevelAgent, manager)

	err := eng.DeleteAgent(ctx, manager.ID)
	assert.ErrorIs(t, err, engine.ErrAgentHasChildren)

	mustSale(t, eng, agent, "POL-DEL", "100", march)
	err = eng.DeleteAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, engine.ErrAgentHasSales)
}

func TestDeleteAgent_LeafWithoutSales_Succeeds(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	agent := mustAgent(t, eng, "Leaf", engine.LevelAgent, nil)

	require.NoError(t, eng.DeleteAgent(ctx, agent.ID))

	_, err := eng.GetAgent(ctx, agent.ID)
	assert.ErrorIs(t, err, engine.ErrAgentNotFound)
}
