package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-checkout/internal/config"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	value, ok, err := store.Get(context.Background(), "tax_rate")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestRedisStore_SetThenGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tax_rate", []byte("11")))

	stored, err := mr.Get("pos:settings:tax_rate")
	require.NoError(t, err)
	assert.Equal(t, "11", stored)
	assert.Zero(t, mr.TTL("pos:settings:tax_rate"))

	value, ok, err := store.Get(ctx, "tax_rate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "11", string(value))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, store.Ping(context.Background()))
	mr.Close()

	_, _, err := store.Get(context.Background(), "tax_rate")

	assert.Error(t, err)
}
