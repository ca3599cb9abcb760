package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/state"
)

var ErrNotInWishlist = errors.New("product not in wishlist")

type WishlistStore struct {
	store *slotStore[model.Wishlist, state.WishlistAction]
}

func NewWishlistStore(slots repository.SlotRepository, log *slog.Logger) *WishlistStore {
	return &WishlistStore{store: newSlotStore(
		"wishlist", slots, repository.WishlistKey, state.EmptyWishlist,
		func(w model.Wishlist) state.WishlistAction { return state.LoadWishlist{Snapshot: w} },
		state.ReduceWishlist, log,
	)}
}

func (s *WishlistStore) Bind(ctx context.Context, userKey string) { s.store.bind(ctx, userKey) }

func (s *WishlistStore) Wishlist() model.Wishlist { return s.store.confirmed() }

func (s *WishlistStore) Contains(productID string) bool {
	return state.InWishlist(s.Wishlist(), productID)
}

// Add is a no-op when the product is already saved.
func (s *WishlistStore) Add(ctx context.Context, p model.Product) model.Wishlist {
	return s.store.dispatch(ctx, state.AddToWishlist{Product: p})
}

func (s *WishlistStore) Remove(ctx context.Context, productID string) (model.Wishlist, error) {
	if !s.Contains(productID) {
		return model.Wishlist{}, ErrNotInWishlist
	}
	return s.store.dispatch(ctx, state.RemoveFromWishlist{ID: productID}), nil
}

// Toggle adds or removes p and reports whether it is saved afterwards.
func (s *WishlistStore) Toggle(ctx context.Context, p model.Product) bool {
	if s.Contains(p.ID) {
		s.store.dispatch(ctx, state.RemoveFromWishlist{ID: p.ID})
		return false
	}
	s.store.dispatch(ctx, state.AddToWishlist{Product: p})
	return true
}

// MoveToCart adds a saved product to cart with its first size and color and
// drops it from the wishlist.
func (s *WishlistStore) MoveToCart(ctx context.Context, productID string, cart *CartStore) (model.Cart, error) {
	var product *model.Product
	for _, p := range s.Wishlist().Items {
		if p.ID == productID {
			product = &p
			break
		}
	}
	if product == nil {
		return model.Cart{}, ErrNotInWishlist
	}
	c := cart.Add(ctx, *product, 1, first(product.Sizes), first(product.Colors))
	s.store.dispatch(ctx, state.RemoveFromWishlist{ID: productID})
	return c, nil
}

func (s *WishlistStore) Clear(ctx context.Context) model.Wishlist {
	return s.store.dispatch(ctx, state.ClearWishlist{})
}

func (s *WishlistStore) wipe(ctx context.Context, userKey string) {
	s.store.wipe(ctx, model.GuestKey, userKey, model.GuestKey)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
