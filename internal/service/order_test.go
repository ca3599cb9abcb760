package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/state"
)

type recordingEvents struct {
	mu   sync.Mutex
	msgs []model.OrderMessage
}

func (r *recordingEvents) Publish(_ context.Context, msg model.OrderMessage) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

func orderInput() CreateOrderInput {
	return CreateOrderInput{
		UserID: "1",
		Items: []model.CartItem{
			{ID: "p1-default-default", Product: testProduct("p1", 20), Quantity: 2},
		},
		Total:  decimal.NewFromInt(40),
		Status: model.OrderStatusProcessing,
	}
}

func newOrderStore(t *testing.T, slots repository.SlotRepository, events OrderEvents, latency time.Duration) *OrderStore {
	t.Helper()
	s := NewOrderStore(slots, events, latency, discardLogger())
	s.Bind(context.Background(), "1")
	return s
}

func TestOrderStore_CreateOrder(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	events := &recordingEvents{}
	store := newOrderStore(t, slots, events, 0)
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	id, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)
	assert.Regexp(t, `^ORDER-1700000000000-[0-9a-z]{9}$`, id)

	o, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, "1", o.UserID)

	data, err := slots.Get(ctx, repository.OrdersKey("1"))
	require.NoError(t, err)
	var stored state.Orders
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Len(t, stored.Orders, 1)
	assert.Equal(t, id, stored.Orders[0].ID)

	require.Len(t, events.msgs, 1)
	assert.Equal(t, model.OrderEventPlaced, events.msgs[0].Event)
	assert.Equal(t, "1", events.msgs[0].UserKey)
}

func TestOrderStore_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t, repository.NewMemorySlotRepository(), nil, 0)
	first, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)
	second, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)

	orders := store.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second, orders[0].ID)
	assert.Equal(t, first, orders[1].ID)
}

func TestOrderStore_SpeculativeUntilWritten(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t, repository.NewMemorySlotRepository(), nil, 50*time.Millisecond)

	done := make(chan string)
	go func() {
		id, _ := store.CreateOrder(ctx, orderInput())
		done <- id
	}()

	require.Eventually(t, func() bool { return len(store.Orders()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, store.Pending())

	id := <-done
	assert.NotEmpty(t, id)
	assert.Zero(t, store.Pending())
	assert.Len(t, store.Orders(), 1)
}

func TestOrderStore_FailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	slots := &flakySlots{SlotRepository: repository.NewMemorySlotRepository()}
	store := newOrderStore(t, slots, nil, 0)

	slots.setFailing(true)
	_, err := store.CreateOrder(ctx, orderInput())
	assert.ErrorIs(t, err, errBackend)
	assert.Empty(t, store.Orders())
	assert.Zero(t, store.Pending())
}

func TestOrderStore_CancelledContextRollsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newOrderStore(t, repository.NewMemorySlotRepository(), nil, time.Hour)

	_, err := store.CreateOrder(ctx, orderInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Orders())
}

func TestOrderStore_Cancel(t *testing.T) {
	ctx := context.Background()
	events := &recordingEvents{}
	store := newOrderStore(t, repository.NewMemorySlotRepository(), events, 0)
	id, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)

	require.NoError(t, store.Cancel(ctx, id))

	o, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
	assert.Empty(t, store.Active())
	assert.Len(t, store.Orders(), 1)

	require.Len(t, events.msgs, 2)
	assert.Equal(t, model.OrderEventStatusChanged, events.msgs[1].Event)
	assert.Equal(t, model.OrderStatusCancelled, events.msgs[1].Status)
}

func TestOrderStore_StatusRules(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t, repository.NewMemorySlotRepository(), nil, 0)
	id, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)

	assert.ErrorIs(t, store.UpdateStatus(ctx, id, "lost"), ErrInvalidStatus)
	assert.ErrorIs(t, store.UpdateStatus(ctx, "ORDER-missing", model.OrderStatusShipped), ErrOrderNotFound)

	require.NoError(t, store.UpdateStatus(ctx, id, model.OrderStatusShipped))
	assert.ErrorIs(t, store.Cancel(ctx, id), ErrOrderNotCancellable)

	require.NoError(t, store.UpdateStatus(ctx, id, model.OrderStatusDelivered))
	assert.ErrorIs(t, store.UpdateStatus(ctx, id, model.OrderStatusShipped), ErrInvalidTransition)
}

func TestOrderStore_ReloadKeepsHistory(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	store := newOrderStore(t, slots, nil, 0)
	id, err := store.CreateOrder(ctx, orderInput())
	require.NoError(t, err)
	require.NoError(t, store.Cancel(ctx, id))

	reloaded := newOrderStore(t, slots, nil, 0)
	o, err := reloaded.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
}

func TestOrderStore_RebindDropsInFlightOrder(t *testing.T) {
	ctx := context.Background()
	slots := repository.NewMemorySlotRepository()
	events := &recordingEvents{}
	store := newOrderStore(t, slots, events, 100*time.Millisecond)

	errs := make(chan error, 1)
	go func() {
		_, err := store.CreateOrder(ctx, orderInput())
		errs <- err
	}()
	require.Eventually(t, func() bool { return store.Pending() == 1 }, time.Second, 5*time.Millisecond)

	store.Bind(ctx, "1")
	assert.ErrorIs(t, <-errs, ErrStoreRebound)
	assert.Empty(t, store.Orders())
	assert.Zero(t, store.Pending())
	assert.Empty(t, events.msgs)
	_, err := slots.Get(ctx, repository.OrdersKey("1"))
	assert.ErrorIs(t, err, repository.ErrSlotNotFound)
}

func TestOrderStore_CreateOrderForAnotherUser(t *testing.T) {
	store := newOrderStore(t, repository.NewMemorySlotRepository(), nil, 0)
	in := orderInput()
	in.UserID = model.GuestKey

	_, err := store.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, ErrStoreRebound)
	assert.Empty(t, store.Orders())
}
