package engine

import "time"

// Engine wires the static rate configuration to a transactional store and
// exposes the core operations: agent lifecycle, recording sales, running
// bonus calculations, and cancelling sales with clawbacks.
type Engine struct {
	store TxStore
	tiers *TierTable

	// now is swappable for tests.
	now func() time.Time
}

// New creates an engine over the given store with the default tier table.
func New(store TxStore) *Engine {
	return &Engine{
		store: store,
		tiers: DefaultTiers(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Tiers returns the static performance tier table.
func (e *Engine) Tiers() *TierTable { return e.tiers }
