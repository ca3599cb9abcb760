package state

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
)

func TestReduceWishlist_AddIsIdempotent(t *testing.T) {
	w := EmptyWishlist()
	w = ReduceWishlist(w, AddToWishlist{Product: product("1", 5)})
	w = ReduceWishlist(w, AddToWishlist{Product: product("1", 6)})
	require.Len(t, w.Items, 1)
	assert.True(t, InWishlist(w, "1"))
	assert.False(t, InWishlist(w, "2"))
}

func TestReduceWishlist_RemoveAndClear(t *testing.T) {
	w := EmptyWishlist()
	w = ReduceWishlist(w, AddToWishlist{Product: product("1", 5)})
	w = ReduceWishlist(w, AddToWishlist{Product: product("2", 5)})
	w = ReduceWishlist(w, RemoveFromWishlist{ID: "1"})
	require.Len(t, w.Items, 1)
	assert.Equal(t, "2", w.Items[0].ID)

	w = ReduceWishlist(w, ClearWishlist{})
	assert.Empty(t, w.Items)
}

func TestReduceWishlist_LoadDropsDuplicates(t *testing.T) {
	w := ReduceWishlist(EmptyWishlist(), LoadWishlist{Snapshot: model.Wishlist{
		Items: []model.Product{product("1", 1), product("1", 1), product("2", 1)},
	}})
	assert.Len(t, w.Items, 2)
}

func order(id string, at time.Time, status model.OrderStatus) model.Order {
	return model.Order{
		ID:        id,
		Items:     []model.CartItem{{ID: "1-default-default", Product: product("1", 10), Quantity: 1}},
		Total:     decimal.NewFromInt(10),
		Status:    status,
		CreatedAt: at,
	}
}

func TestReduceOrders_AddPrepends(t *testing.T) {
	now := time.Now()
	s := EmptyOrders()
	s = ReduceOrders(s, AddOrder{Order: order("a", now, model.OrderStatusProcessing)})
	s = ReduceOrders(s, AddOrder{Order: order("b", now.Add(time.Second), model.OrderStatusProcessing)})
	require.Len(t, s.Orders, 2)
	assert.Equal(t, "b", s.Orders[0].ID)
}

func TestReduceOrders_LoadSortsNewestFirst(t *testing.T) {
	now := time.Now()
	s := ReduceOrders(EmptyOrders(), LoadOrders{Orders: []model.Order{
		order("old", now.Add(-time.Hour), model.OrderStatusDelivered),
		order("new", now, model.OrderStatusPending),
		order("mid", now.Add(-time.Minute), model.OrderStatusShipped),
	}})
	ids := []string{s.Orders[0].ID, s.Orders[1].ID, s.Orders[2].ID}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestActiveOrders_HidesCancelledAndEmpty(t *testing.T) {
	now := time.Now()
	empty := order("empty", now, model.OrderStatusPending)
	empty.Items = nil
	s := ReduceOrders(EmptyOrders(), LoadOrders{Orders: []model.Order{
		order("a", now, model.OrderStatusProcessing),
		order("b", now, model.OrderStatusCancelled),
		empty,
	}})
	active := ActiveOrders(s)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	cancelled, ok := FindOrder(s, "b")
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
}

func TestOptimistic_SpeculativeReplaysPending(t *testing.T) {
	o := NewOptimistic(EmptyCart(), ReduceCart)
	t1 := o.Propose(AddToCart{Product: product("1", 2), Quantity: 1})
	t2 := o.Propose(AddToCart{Product: product("1", 2), Quantity: 2})

	assert.Empty(t, o.Confirmed().Items)
	assert.Equal(t, 3, o.Speculative().ItemCount)

	// Settling out of order must not reorder application.
	o.Settle(t2, true)
	assert.Empty(t, o.Confirmed().Items)
	o.Settle(t1, true)

	assert.Equal(t, 3, o.Confirmed().ItemCount)
	assert.Equal(t, o.Confirmed(), o.Speculative())
	assert.Zero(t, o.Pending())
}

func TestOptimistic_RollbackDropsAction(t *testing.T) {
	o := NewOptimistic(EmptyOrders(), ReduceOrders)
	tk := o.Propose(AddOrder{Order: order("a", time.Now(), model.OrderStatusProcessing)})
	require.Len(t, o.Speculative().Orders, 1)

	o.Settle(tk, false)
	assert.Empty(t, o.Speculative().Orders)
	assert.Empty(t, o.Confirmed().Orders)
}

func TestOptimistic_ApplyConverges(t *testing.T) {
	o := NewOptimistic(EmptyWishlist(), ReduceWishlist)
	got := o.Apply(AddToWishlist{Product: product("1", 1)})
	assert.Equal(t, got, o.Speculative())
	assert.Len(t, got.Items, 1)
}

func TestOptimistic_PreviewSkipsInFlight(t *testing.T) {
	o := NewOptimistic(EmptyOrders(), ReduceOrders)
	now := time.Now()
	slow := o.Propose(AddOrder{Order: order("slow", now, model.OrderStatusProcessing)})
	fast := o.Propose(AddOrder{Order: order("fast", now, model.OrderStatusProcessing)})

	preview := o.Preview(fast)
	require.Len(t, preview.Orders, 1)
	assert.Equal(t, "fast", preview.Orders[0].ID)

	o.Settle(fast, true)
	preview = o.Preview(slow)
	require.Len(t, preview.Orders, 2)
	assert.Equal(t, "fast", preview.Orders[0].ID)
}
