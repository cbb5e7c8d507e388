package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissingKey(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyOrders, []byte(`[]`)))

	got, err := s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	require.NoError(t, s.Delete(ctx, KeyOrders))
	_, err = s.Get(ctx, KeyOrders)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyOrders, []byte(`[1]`)))

	got, err := s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	got[1] = '9'

	again, err := s.Get(ctx, KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), again)
}
