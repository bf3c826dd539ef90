package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkBackend: общий контракт для всех драйверов.
func checkBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.GetItem(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report ok=false")

	require.NoError(t, b.SetItem(ctx, "orders", `[{"id":"1"}]`))
	v, ok, err := b.GetItem(ctx, "orders")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, b.SetItem(ctx, "orders", `[]`))
	v, _, err = b.GetItem(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "set must overwrite")

	require.NoError(t, b.SetItem(ctx, "lastOrderNumber_2025", "7"))
	v, _, err = b.GetItem(ctx, "lastOrderNumber_2025")
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	require.NoError(t, b.RemoveItem(ctx, "orders"))
	_, ok, err = b.GetItem(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.RemoveItem(ctx, "never-existed"))
}
