package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/state"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartStore keeps one client's cart in sync with its cart_<user> slot.
type CartStore struct {
	store *slotStore[model.Cart, state.CartAction]
}

func NewCartStore(slots repository.SlotRepository, log *slog.Logger) *CartStore {
	return &CartStore{store: newSlotStore(
		"cart", slots, repository.CartKey, state.EmptyCart,
		func(c model.Cart) state.CartAction { return state.LoadCart{Snapshot: c} },
		state.ReduceCart, log,
	)}
}

// Bind reloads the cart of userKey.
func (s *CartStore) Bind(ctx context.Context, userKey string) { s.store.bind(ctx, userKey) }

func (s *CartStore) UserKey() string { return s.store.currentUser() }

func (s *CartStore) Cart() model.Cart { return s.store.confirmed() }

func (s *CartStore) Add(ctx context.Context, p model.Product, quantity int, size, color string) model.Cart {
	return s.store.dispatch(ctx, state.AddToCart{Product: p, Quantity: quantity, Size: size, Color: color})
}

func (s *CartStore) Remove(ctx context.Context, lineID string) (model.Cart, error) {
	if _, ok := state.FindLine(s.Cart(), lineID); !ok {
		return model.Cart{}, ErrCartItemNotFound
	}
	return s.store.dispatch(ctx, state.RemoveFromCart{ID: lineID}), nil
}

// SetQuantity removes the line when quantity is zero or below.
func (s *CartStore) SetQuantity(ctx context.Context, lineID string, quantity int) (model.Cart, error) {
	if _, ok := state.FindLine(s.Cart(), lineID); !ok {
		return model.Cart{}, ErrCartItemNotFound
	}
	return s.store.dispatch(ctx, state.UpdateQuantity{ID: lineID, Quantity: quantity}), nil
}

func (s *CartStore) Clear(ctx context.Context) model.Cart {
	return s.store.dispatch(ctx, state.ClearCart{})
}

// clearFor empties the cart only while it still belongs to userKey.
func (s *CartStore) clearFor(ctx context.Context, userKey string) error {
	_, err := s.store.dispatchAs(ctx, userKey, state.ClearCart{})
	return err
}

// Reorder adds every line of a past order back into the cart.
func (s *CartStore) Reorder(ctx context.Context, o model.Order) model.Cart {
	c := s.Cart()
	for _, item := range o.Items {
		c = s.Add(ctx, item.Product, item.Quantity, item.Size, item.Color)
	}
	return c
}

func (s *CartStore) Quote() state.Quote { return state.QuoteCart(s.Cart()) }

func (s *CartStore) wipe(ctx context.Context, userKey string) {
	s.store.wipe(ctx, model.GuestKey, userKey, model.GuestKey)
}
