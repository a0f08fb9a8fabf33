/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All engine errors in one place. The API layer classifies them with the
  helpers at the bottom instead of matching on concrete types.

ERROR CATEGORIES:
  1. Referential errors  - a referenced agent/sale/parent does not exist
  2. Validation errors   - malformed or out-of-range input
  3. Invariant errors    - hierarchy level ordering, cyclic reparenting
  4. Conflict errors     - duplicate policy number
  5. Storage errors      - surfaced wrapped; the whole operation rolls back

USAGE:
  if engine.IsNotFound(err) { ... 404 ... }
  if errors.Is(err, engine.ErrDuplicatePolicyNumber) { ... 409 ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAgentNotFound is returned when a referenced agent doesn't exist.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrParentNotFound is returned when a referenced parent agent doesn't exist.
	ErrParentNotFound = errors.New("parent agent not found")

	// ErrSaleNotFound is returned when a referenced sale doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrDuplicatePolicyNumber is returned when a sale reuses a policy number.
	ErrDuplicatePolicyNumber = errors.New("policy number already exists")

	// ErrInvalidLevel is returned for levels outside 1..4.
	ErrInvalidLevel = errors.New("agent level must be 1 (Agent), 2 (Team Lead), 3 (Manager), or 4 (Director)")

	// ErrInvalidName is returned for empty agent names.
	ErrInvalidName = errors.New("agent name must be a non-empty string")

	// ErrInvalidPolicyValue is returned when a sale's value is not positive.
	ErrInvalidPolicyValue = errors.New("policy value must be greater than zero")

	// ErrInvalidPolicyNumber is returned for empty policy numbers.
	ErrInvalidPolicyNumber = errors.New("policy number is required")

	// ErrLevelOrder is returned when a parent would not strictly outrank a child.
	ErrLevelOrder = errors.New("parent agent must be at a higher level than the child agent")

	// ErrCyclicHierarchy is returned when reparenting would create a cycle.
	ErrCyclicHierarchy = errors.New("parent cannot be the agent itself or one of its descendants")

	// ErrAgentHasSales blocks deletion of an agent with recorded sales.
	ErrAgentHasSales = errors.New("agent has associated sales")

	// ErrAgentHasChildren blocks deletion of an agent with child agents.
	ErrAgentHasChildren = errors.New("agent has child agents")

	// ErrInvalidBonusType is returned for bonus types other than
	// Monthly, Quarterly, or Annual.
	ErrInvalidBonusType = errors.New("invalid bonus type: use Monthly, Quarterly, or Annual")

	// ErrInvalidPeriod is returned for malformed period keys.
	ErrInvalidPeriod = errors.New("invalid period format: use YYYY-MM, YYYY-Q#, or YYYY")

	// ErrHierarchyDepthExceeded is returned when an upline walk runs past the
	// defensive depth bound, which only happens on corrupted cyclic data.
	ErrHierarchyDepthExceeded = errors.New("hierarchy depth bound exceeded: possible cycle")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// LevelOrderError reports which pair of agents violates the level-monotonic
// invariant.
type LevelOrderError struct {
	ParentID    AgentID
	ParentLevel Level
	ChildID     AgentID
	ChildLevel  Level
}

func (e *LevelOrderError) Error() string {
	return fmt.Sprintf("level order violated: parent %s (level %d) must outrank child %s (level %d)",
		e.ParentID, e.ParentLevel, e.ChildID, e.ChildLevel)
}

func (e *LevelOrderError) Unwrap() error { return ErrLevelOrder }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing referenced record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsConflict returns true for uniqueness conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePolicyNumber)
}

// IsClientError returns true if the error is due to invalid client input or
// an invariant the caller violated. No state was changed.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidPolicyValue) ||
		errors.Is(err, ErrInvalidPolicyNumber) ||
		errors.Is(err, ErrLevelOrder) ||
		errors.Is(err, ErrCyclicHierarchy) ||
		errors.Is(err, ErrAgentHasSales) ||
		errors.Is(err, ErrAgentHasChildren) ||
		errors.Is(err, ErrInvalidBonusType) ||
		errors.Is(err, ErrInvalidPeriod)
}
