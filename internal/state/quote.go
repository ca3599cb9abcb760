package state

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

var (
	freeShippingOver = decimal.NewFromInt(100)
	flatShipping     = decimal.NewFromInt(10)
	taxRate          = decimal.NewFromFloat(0.08)
)

type Quote struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	// FreeShippingGap is what is left to spend before shipping is free.
	FreeShippingGap decimal.Decimal `json:"free_shipping_gap"`
}

// QuoteCart prices a cart for display. An empty cart costs nothing.
func QuoteCart(c model.Cart) Quote {
	q := Quote{Subtotal: c.Total, Shipping: decimal.Zero, FreeShippingGap: decimal.Zero}
	if len(c.Items) > 0 && c.Total.LessThanOrEqual(freeShippingOver) {
		q.Shipping = flatShipping
		q.FreeShippingGap = freeShippingOver.Sub(c.Total)
	}
	q.Tax = c.Total.Mul(taxRate).Round(2)
	q.GrandTotal = q.Subtotal.Add(q.Shipping).Add(q.Tax)
	return q
}
