package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/state"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("order status can no longer change")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// OrderEvents receives placed and status-changed orders.
type OrderEvents interface {
	Publish(ctx context.Context, msg model.OrderMessage) error
}

type CreateOrderInput struct {
	UserID          string
	Items           []model.CartItem
	Total           decimal.Decimal
	Status          model.OrderStatus
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
}

// OrderStore keeps order history per user. New orders show up in Orders
// before their write lands and disappear again if it fails. An order is
// only placed for the user the store is bound to, and fails with
// ErrStoreRebound if that user signs out or back in before it is saved.
type OrderStore struct {
	store   *slotStore[state.Orders, state.OrderAction]
	log     *slog.Logger
	events  OrderEvents
	latency time.Duration
	now     func() time.Time
	newID   func(time.Time) string
}

func NewOrderStore(slots repository.SlotRepository, events OrderEvents, latency time.Duration, log *slog.Logger) *OrderStore {
	return &OrderStore{
		store: newSlotStore(
			"orders", slots, repository.OrdersKey, state.EmptyOrders,
			func(o state.Orders) state.OrderAction { return state.LoadOrders{Orders: o.Orders} },
			state.ReduceOrders, log,
		),
		log:     log,
		events:  events,
		latency: latency,
		now:     time.Now,
		newID:   NewOrderID,
	}
}

// NewOrderID returns ORDER-<unix ms>-<9 char suffix>.
func NewOrderID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("ORDER-%d-%s", at.UnixMilli(), suffix)
}

func (s *OrderStore) Bind(ctx context.Context, userKey string) { s.store.bind(ctx, userKey) }

// Orders is the speculative history, newest first.
func (s *OrderStore) Orders() []model.Order { return s.store.speculative().Orders }

func (s *OrderStore) Active() []model.Order { return state.ActiveOrders(s.store.speculative()) }

func (s *OrderStore) Get(id string) (model.Order, error) {
	o, ok := state.FindOrder(s.store.speculative(), id)
	if !ok {
		return model.Order{}, ErrOrderNotFound
	}
	return o, nil
}

// Pending reports how many order writes are still in flight.
func (s *OrderStore) Pending() int { return s.store.pending() }

func (s *OrderStore) CreateOrder(ctx context.Context, in CreateOrderInput) (string, error) {
	now := s.now()
	status := in.Status
	if status == "" {
		status = model.OrderStatusPending
	}
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	items := make([]model.CartItem, len(in.Items))
	copy(items, in.Items)
	order := model.Order{
		ID:              s.newID(now),
		UserID:          in.UserID,
		Items:           items,
		Total:           in.Total,
		Status:          status,
		CreatedAt:       now,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
	}

	p, err := s.store.propose(in.UserID, state.AddOrder{Order: order})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	if s.latency > 0 {
		select {
		case <-ctx.Done():
			s.store.rollback(p)
			return "", fmt.Errorf("create order: %w", ctx.Err())
		case <-time.After(s.latency):
		}
	}
	if err := s.store.commit(ctx, p); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, model.OrderMessage{
		Event:   model.OrderEventPlaced,
		OrderID: order.ID,
		UserKey: p.userKey,
		Status:  order.Status,
	})
	return order.ID, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	check := func(orders state.Orders) error {
		o, ok := state.FindOrder(orders, id)
		if !ok {
			return ErrOrderNotFound
		}
		if o.Status == status {
			return nil
		}
		if status == model.OrderStatusCancelled && !o.Status.Cancellable() {
			return ErrOrderNotCancellable
		}
		if o.Status.Terminal() {
			return ErrInvalidTransition
		}
		return nil
	}
	p, err := s.store.proposeChecked(check, state.UpdateOrderStatus{ID: id, Status: status})
	if err != nil {
		return err
	}
	if err := s.store.commit(ctx, p); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	s.publish(ctx, model.OrderMessage{
		Event:   model.OrderEventStatusChanged,
		OrderID: id,
		UserKey: p.userKey,
		Status:  status,
	})
	return nil
}

func (s *OrderStore) Cancel(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, model.OrderStatusCancelled)
}

func (s *OrderStore) publish(ctx context.Context, msg model.OrderMessage) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		s.log.Error("publish order event failed", "order_id", msg.OrderID, "event", msg.Event, "error", err)
	}
}

func (s *OrderStore) wipe(ctx context.Context, userKey string) {
	s.store.wipe(ctx, model.GuestKey, userKey, model.GuestKey)
}
