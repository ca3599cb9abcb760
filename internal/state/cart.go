// Package state holds the pure reducers behind the storefront stores. Every
// reducer returns a fresh value and never mutates its input, so a confirmed
// value and a speculative value derived from it never share backing arrays.
package state

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

type CartAction interface{ cartAction() }

type AddToCart struct {
	Product  model.Product
	Quantity int
	Size     string
	Color    string
}

type RemoveFromCart struct{ ID string }

type UpdateQuantity struct {
	ID       string
	Quantity int
}

type ClearCart struct{}

type LoadCart struct{ Snapshot model.Cart }

func (AddToCart) cartAction()      {}
func (RemoveFromCart) cartAction() {}
func (UpdateQuantity) cartAction() {}
func (ClearCart) cartAction()      {}
func (LoadCart) cartAction()       {}

// LineID builds the composite identity of a cart line.
func LineID(productID, size, color string) string {
	if size == "" {
		size = "default"
	}
	if color == "" {
		color = "default"
	}
	return fmt.Sprintf("%s-%s-%s", productID, size, color)
}

func EmptyCart() model.Cart {
	return model.Cart{Items: []model.CartItem{}, Total: decimal.Zero}
}

func ReduceCart(s model.Cart, a CartAction) model.Cart {
	switch a := a.(type) {
	case AddToCart:
		qty := a.Quantity
		if qty < 1 {
			qty = 1
		}
		items := make([]model.CartItem, 0, len(s.Items)+1)
		found := false
		for _, item := range s.Items {
			if item.Product.ID == a.Product.ID && item.Size == a.Size && item.Color == a.Color {
				item.Quantity += qty
				found = true
			}
			items = append(items, item)
		}
		if !found {
			items = append(items, model.CartItem{
				ID:       LineID(a.Product.ID, a.Size, a.Color),
				Product:  a.Product,
				Quantity: qty,
				Size:     a.Size,
				Color:    a.Color,
			})
		}
		return withTotals(items)

	case RemoveFromCart:
		items := make([]model.CartItem, 0, len(s.Items))
		for _, item := range s.Items {
			if item.ID != a.ID {
				items = append(items, item)
			}
		}
		return withTotals(items)

	case UpdateQuantity:
		if a.Quantity <= 0 {
			return ReduceCart(s, RemoveFromCart{ID: a.ID})
		}
		items := make([]model.CartItem, 0, len(s.Items))
		for _, item := range s.Items {
			if item.ID == a.ID {
				item.Quantity = a.Quantity
			}
			items = append(items, item)
		}
		return withTotals(items)

	case ClearCart:
		return EmptyCart()

	case LoadCart:
		items := make([]model.CartItem, 0, len(a.Snapshot.Items))
		for _, item := range a.Snapshot.Items {
			if item.Quantity > 0 {
				items = append(items, item)
			}
		}
		return withTotals(items)
	}
	return s
}

// withTotals derives total and item count from the items; they are never
// carried over from a previous value.
func withTotals(items []model.CartItem) model.Cart {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.LineTotal())
		count += item.Quantity
	}
	return model.Cart{Items: items, Total: total, ItemCount: count}
}

// FindLine returns the line with the given id.
func FindLine(c model.Cart, id string) (model.CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return model.CartItem{}, false
}
