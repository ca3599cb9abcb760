package state

import (
	"sort"

	"github.com/flicky/go-storefront/internal/model"
)

type OrderAction interface{ orderAction() }

type AddOrder struct{ Order model.Order }

type UpdateOrderStatus struct {
	ID     string
	Status model.OrderStatus
}

type ClearOrders struct{}

type LoadOrders struct{ Orders []model.Order }

func (AddOrder) orderAction()          {}
func (UpdateOrderStatus) orderAction() {}
func (ClearOrders) orderAction()       {}
func (LoadOrders) orderAction()        {}

// Orders is kept most-recent-first.
type Orders struct {
	Orders []model.Order `json:"orders"`
}

func EmptyOrders() Orders {
	return Orders{Orders: []model.Order{}}
}

func ReduceOrders(s Orders, a OrderAction) Orders {
	switch a := a.(type) {
	case AddOrder:
		orders := make([]model.Order, 0, len(s.Orders)+1)
		orders = append(orders, a.Order)
		return Orders{Orders: append(orders, s.Orders...)}

	case UpdateOrderStatus:
		orders := make([]model.Order, 0, len(s.Orders))
		for _, o := range s.Orders {
			if o.ID == a.ID {
				o.Status = a.Status
			}
			orders = append(orders, o)
		}
		return Orders{Orders: orders}

	case ClearOrders:
		return EmptyOrders()

	case LoadOrders:
		orders := make([]model.Order, len(a.Orders))
		copy(orders, a.Orders)
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		})
		return Orders{Orders: orders}
	}
	return s
}

func FindOrder(s Orders, id string) (model.Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

// ActiveOrders hides cancelled orders and empty records.
func ActiveOrders(s Orders) []model.Order {
	active := make([]model.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		if o.Status == model.OrderStatusCancelled || len(o.Items) == 0 || !o.Total.IsPositive() {
			continue
		}
		active = append(active, o)
	}
	return active
}
