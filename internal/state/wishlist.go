package state

import "github.com/flicky/go-storefront/internal/model"

type WishlistAction interface{ wishlistAction() }

type AddToWishlist struct{ Product model.Product }

type RemoveFromWishlist struct{ ID string }

type ClearWishlist struct{}

type LoadWishlist struct{ Snapshot model.Wishlist }

func (AddToWishlist) wishlistAction()      {}
func (RemoveFromWishlist) wishlistAction() {}
func (ClearWishlist) wishlistAction()      {}
func (LoadWishlist) wishlistAction()       {}

func EmptyWishlist() model.Wishlist {
	return model.Wishlist{Items: []model.Product{}}
}

func ReduceWishlist(s model.Wishlist, a WishlistAction) model.Wishlist {
	switch a := a.(type) {
	case AddToWishlist:
		if InWishlist(s, a.Product.ID) {
			return s
		}
		items := make([]model.Product, 0, len(s.Items)+1)
		items = append(items, s.Items...)
		return model.Wishlist{Items: append(items, a.Product)}

	case RemoveFromWishlist:
		items := make([]model.Product, 0, len(s.Items))
		for _, p := range s.Items {
			if p.ID != a.ID {
				items = append(items, p)
			}
		}
		return model.Wishlist{Items: items}

	case ClearWishlist:
		return EmptyWishlist()

	case LoadWishlist:
		// Replaying through add drops duplicates a hand-edited snapshot may carry.
		out := EmptyWishlist()
		for _, p := range a.Snapshot.Items {
			out = ReduceWishlist(out, AddToWishlist{Product: p})
		}
		return out
	}
	return s
}

func InWishlist(s model.Wishlist, id string) bool {
	for _, p := range s.Items {
		if p.ID == id {
			return true
		}
	}
	return false
}
