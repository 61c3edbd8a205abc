package usagemeter_test

import (
	"context"
	"testing"

	um "github.com/ineyio/usagemeter"
	"github.com/ineyio/usagemeter/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: a work ID is unsettled until Settle, then settled forever
func TestGuard_SettleRoundtrip(t *testing.T) {
	g := um.NewGuard(store.NewMemoryStore(), "settled:")
	ctx := context.Background()

	settled, err := g.Settled(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, settled)

	require.NoError(t, g.Settle(ctx, "r1"))

	settled, err = g.Settled(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, settled)

	// Settle is idempotent.
	require.NoError(t, g.Settle(ctx, "r1"))
	settled, err = g.Settled(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, settled)
}

// Test 2: work IDs are independent
func TestGuard_WorkIDsIndependent(t *testing.T) {
	g := um.NewGuard(store.NewMemoryStore(), "settled:")
	ctx := context.Background()

	require.NoError(t, g.Settle(ctx, "r1"))

	settled, err := g.Settled(ctx, "r2")
	require.NoError(t, err)
	assert.False(t, settled)
}

// Test 3: store failures propagate
func TestGuard_StoreError(t *testing.T) {
	g := um.NewGuard(errStore{}, "settled:")
	ctx := context.Background()

	_, err := g.Settled(ctx, "r1")
	assert.ErrorIs(t, err, um.ErrStoreUnavailable)

	err = g.Settle(ctx, "r1")
	assert.ErrorIs(t, err, um.ErrStoreUnavailable)
}
