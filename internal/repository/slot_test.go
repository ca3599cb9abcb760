package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (SlotRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotRepository(client, "storefront:", ttl), mr
}

func exerciseSlots(t *testing.T, repo SlotRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, CartKey("7"))
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, repo.Set(ctx, CartKey("7"), []byte(`{"items":[]}`)))
	require.NoError(t, repo.Set(ctx, CartKey("7"), []byte(`{"items":[1]}`)))
	got, err := repo.Get(ctx, CartKey("7"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[1]}`, string(got))

	require.NoError(t, repo.Set(ctx, WishlistKey("7"), []byte(`{}`)))
	require.NoError(t, repo.Delete(ctx, CartKey("7"), WishlistKey("7"), OrdersKey("missing")))

	_, err = repo.Get(ctx, CartKey("7"))
	assert.ErrorIs(t, err, ErrSlotNotFound)
	_, err = repo.Get(ctx, WishlistKey("7"))
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, repo.Delete(ctx))
	require.NoError(t, repo.Ping(ctx))
}

func TestMemorySlotRepository(t *testing.T) {
	exerciseSlots(t, NewMemorySlotRepository())
}

func TestMemorySlotRepository_CopiesValues(t *testing.T) {
	repo := NewMemorySlotRepository()
	ctx := context.Background()
	value := []byte(`"a"`)
	require.NoError(t, repo.Set(ctx, "k", value))
	value[1] = 'b'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"a"`, string(got))
}

func TestRedisSlotRepository(t *testing.T) {
	repo, _ := newRedisRepo(t, 0)
	exerciseSlots(t, repo)
}

func TestRedisSlotRepository_PrefixAndTTL(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	require.NoError(t, repo.Set(context.Background(), SessionKey("3"), []byte(`{}`)))

	assert.True(t, mr.Exists("storefront:session_3"))
	assert.Equal(t, time.Hour, mr.TTL("storefront:session_3"))

	mr.FastForward(2 * time.Hour)
	_, err := repo.Get(context.Background(), SessionKey("3"))
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestSlotKeys(t *testing.T) {
	assert.Equal(t, "cart_guest", CartKey("guest"))
	assert.Equal(t, "wishlist_15", WishlistKey("15"))
	assert.Equal(t, "orders_15", OrdersKey("15"))
	assert.Equal(t, "session_15", SessionKey("15"))
	assert.Equal(t, "account_emilys", AccountKey("emilys"))
}
