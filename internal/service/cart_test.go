package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

func TestCartStore_AddPersistsPerUser(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	store := NewCartStore(slots, discardLogger())
	store.Bind(ctx, "1")

	store.Add(ctx, testProduct("p1", 10), 2, "M", "Black")
	store.Add(ctx, testProduct("p1", 10), 1, "M", "Black")

	c := store.Cart()
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1-M-Black", c.Items[0].ID)
	assert.Equal(t, 3, c.ItemCount)
	assert.True(t, decimal.NewFromInt(30).Equal(c.Total))

	reloaded := NewCartStore(slots, discardLogger())
	reloaded.Bind(ctx, "1")
	assert.Equal(t, 3, reloaded.Cart().ItemCount)

	reloaded.Bind(ctx, "2")
	assert.Empty(t, reloaded.Cart().Items)
}

func TestCartStore_SetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(repository.NewMemorySlotRepository(), discardLogger())
	store.Bind(ctx, model.GuestKey)
	store.Add(ctx, testProduct("p1", 5), 1, "", "")

	c, err := store.SetQuantity(ctx, "p1-default-default", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.ItemCount)

	c, err = store.SetQuantity(ctx, "p1-default-default", 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = store.Remove(ctx, "p1-default-default")
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	_, err = store.SetQuantity(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartStore_CorruptSlotLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	require.NoError(t, slots.Set(ctx, repository.CartKey("1"), []byte("{not json")))

	store := NewCartStore(slots, discardLogger())
	store.Bind(ctx, "1")
	assert.Empty(t, store.Cart().Items)
	assert.True(t, store.Cart().Total.IsZero())
}

func TestCartStore_LoadRecomputesStoredTotals(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	require.NoError(t, slots.Set(ctx, repository.CartKey("1"), []byte(
		`{"items":[{"id":"p1-default-default","product":{"id":"p1","price":"2.5"},"quantity":4}],"total":"999","item_count":1}`,
	)))

	store := NewCartStore(slots, discardLogger())
	store.Bind(ctx, "1")
	assert.Equal(t, 4, store.Cart().ItemCount)
	assert.True(t, decimal.NewFromInt(10).Equal(store.Cart().Total))
}

func TestCartStore_WriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	slots := &flakySlots{SlotRepository: repository.NewMemorySlotRepository()}
	store := NewCartStore(slots, discardLogger())
	store.Bind(ctx, "1")

	slots.setFailing(true)
	c := store.Add(ctx, testProduct("p1", 1), 1, "", "")
	assert.Len(t, c.Items, 1)
	assert.Len(t, store.Cart().Items, 1)
}

func TestCartStore_Reorder(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(repository.NewMemorySlotRepository(), discardLogger())
	store.Bind(ctx, "1")
	store.Add(ctx, testProduct("p1", 10), 1, "M", "Black")

	c := store.Reorder(ctx, model.Order{Items: []model.CartItem{
		{ID: "p1-M-Black", Product: testProduct("p1", 10), Quantity: 2, Size: "M", Color: "Black"},
		{ID: "p2-default-default", Product: testProduct("p2", 3), Quantity: 1},
	}})
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 4, c.ItemCount)
}

func TestCartStore_Quote(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(repository.NewMemorySlotRepository(), discardLogger())
	store.Bind(ctx, "1")
	store.Add(ctx, testProduct("p1", 50), 1, "", "")

	q := store.Quote()
	assert.True(t, decimal.NewFromInt(10).Equal(q.Shipping))
	assert.True(t, decimal.NewFromInt(4).Equal(q.Tax))
}

func TestWishlistStore(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	wl := NewWishlistStore(slots, discardLogger())
	cart := NewCartStore(slots, discardLogger())
	wl.Bind(ctx, "1")
	cart.Bind(ctx, "1")

	wl.Add(ctx, testProduct("p1", 1))
	wl.Add(ctx, testProduct("p1", 1))
	assert.Len(t, wl.Wishlist().Items, 1)
	assert.True(t, wl.Contains("p1"))

	assert.True(t, wl.Toggle(ctx, testProduct("p2", 2)))
	assert.False(t, wl.Toggle(ctx, testProduct("p2", 2)))
	assert.False(t, wl.Contains("p2"))

	c, err := wl.MoveToCart(ctx, "p1", cart)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1-M-Black", c.Items[0].ID)
	assert.False(t, wl.Contains("p1"))

	_, err = wl.MoveToCart(ctx, "p1", cart)
	assert.ErrorIs(t, err, ErrNotInWishlist)
	_, err = wl.Remove(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotInWishlist)

	wl.Add(ctx, testProduct("p3", 1))
	assert.Empty(t, wl.Clear(ctx).Items)
}
