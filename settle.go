package usagemeter

import (
	"context"
	"fmt"
)

// settledSentinel is the marker value; only key presence matters.
const settledSentinel = "1"

// Guard records which work units have been billed, making consumption
// idempotent per work ID.
//
// Markers are written without expiry: a work ID must stay settled for as
// long as a replay of it must be rejected, which for billing is forever.
type Guard struct {
	store  Store
	prefix string
}

// NewGuard creates a Guard over the given store. Markers are stored
// under prefix + workID.
func NewGuard(store Store, prefix string) *Guard {
	return &Guard{store: store, prefix: prefix}
}

// Settled reports whether a settlement marker exists for workID.
func (g *Guard) Settled(ctx context.Context, workID string) (bool, error) {
	_, ok, err := g.store.Get(ctx, g.prefix+workID)
	if err != nil {
		return false, fmt.Errorf("usagemeter: read settlement: %w", err)
	}
	return ok, nil
}

// Settle writes the settlement marker for workID unconditionally.
//
// Must be called only after the corresponding debit succeeded. A marker
// written before a failed debit would permanently block a legitimate
// retry of the same work ID.
func (g *Guard) Settle(ctx context.Context, workID string) error {
	if err := g.store.Put(ctx, g.prefix+workID, settledSentinel, 0); err != nil {
		return fmt.Errorf("usagemeter: write settlement: %w", err)
	}
	return nil
}
