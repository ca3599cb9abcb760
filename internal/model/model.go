package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// GuestKey namespaces state that belongs to nobody in particular.
const GuestKey = "guest"

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
	Images        []string         `json:"images"`
	Category      string           `json:"category"`
	Brand         string           `json:"brand"`
	Sizes         []string         `json:"sizes"`
	Colors        []string         `json:"colors"`
	InStock       bool             `json:"in_stock"`
	StockCount    int              `json:"stock_count"`
	Rating        float64          `json:"rating"`
	ReviewCount   int              `json:"review_count"`
	Featured      bool             `json:"featured"`
	Tags          []string         `json:"tags"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Size     string  `json:"size,omitempty"`
	Color    string  `json:"color,omitempty"`
}

// LineTotal is the unit price snapshot times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type Wishlist struct {
	Items []Product `json:"items"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

// Cancellable reports whether the order has not left the warehouse yet.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

// PaymentMethod never holds the full card number or the CVV.
type PaymentMethod struct {
	Type       string `json:"type"`
	Last4      string `json:"last4"`
	ExpiryDate string `json:"expiry_date"`
	NameOnCard string `json:"name_on_card"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Image     string `json:"image,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Key is the storage namespace for the user's slots.
func (u User) Key() string {
	return strconv.FormatInt(u.ID, 10)
}

// Account is a locally registered demo login.
type Account struct {
	User         User   `json:"user"`
	PasswordHash string `json:"password_hash"`
}

type OrderMessage struct {
	Event   string      `json:"event"`
	OrderID string      `json:"order_id"`
	UserKey string      `json:"user_key"`
	Status  OrderStatus `json:"status"`
}

const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status_changed"
)
